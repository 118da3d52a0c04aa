// Copyright (C) 2021  Antonio Lassandro

// This program is free software: you can redistribute it and/or modify it
// under the terms of the GNU General Public License as published by the Free
// Software Foundation, either version 3 of the License, or (at your option)
// any later version.

// This program is distributed in the hope that it will be useful, but WITHOUT
// ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
// FITNESS FOR A PARTICULAR PURPOSE.  See the GNU General Public License for
// more details.

// You should have received a copy of the GNU General Public License along
// with this program.  If not, see <http://www.gnu.org/licenses/>.

package machine

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/lassandro/intcode/pkg/encoding"
)

// New creates a machine whose memory is a copy of image, with the program
// counter and relative base at zero.
func New(image []int64, opts ...Option) (*Machine, error) {
	mc := &Machine{image: slices.Clone(image)}

	for _, opt := range opts {
		if err := opt(mc); err != nil {
			return nil, err
		}
	}

	mc.Reset()

	return mc, nil
}

// Load decodes a comma-separated program from r and creates a machine for
// it. Parse errors are returned before any machine is constructed.
func Load(r io.Reader, opts ...Option) (*Machine, error) {
	image, err := encoding.DecodeProgram(r)

	if err != nil {
		return nil, err
	}

	return New(image, opts...)
}

func LoadFile(filename string, opts ...Option) (*Machine, error) {
	file, err := os.Open(filename)

	if err != nil {
		return nil, errors.Wrap(err, "load program")
	}

	defer file.Close()

	mc, err := Load(file, opts...)

	return mc, errors.WithMessage(err, filename)
}

// Patch overwrites a word of the initial image before the machine starts.
// Patched words are part of the image inherited by forks.
func Patch(addr int64, value int64) Option {
	return func(mc *Machine) error {
		mem := Memory{cells: mc.image}

		if err := mem.Store(addr, value); err != nil {
			return errors.Wrap(err, "patch")
		}

		mc.image = mem.cells

		return nil
	}
}

func Debug(dbg MachineDebugger) Option {
	return func(mc *Machine) error {
		mc.Debugger = dbg
		return nil
	}
}

// Reset restores the initial image and clears the registers.
func (mc *Machine) Reset() {
	mc.State.Program = 0
	mc.State.Base = 0
	mc.State.Memory = NewMemory(mc.image)
	mc.count = 0
}

// Fork returns an independent machine started from the receiver's initial
// image, regardless of how far the receiver has run.
func (mc *Machine) Fork() *Machine {
	fork := &Machine{image: mc.image}
	fork.Reset()
	return fork
}

// Snapshot returns an independent machine holding the receiver's current
// memory and registers.
func (mc *Machine) Snapshot() *Machine {
	return &Machine{
		State: MachineState{
			Program: mc.State.Program,
			Base:    mc.State.Base,
			Memory:  NewMemory(mc.State.Memory.cells),
		},
		image: mc.image,
		count: mc.count,
	}
}

func (mc *Machine) Image() []int64 {
	return slices.Clone(mc.image)
}

func (mc *Machine) InstructionCount() int64 {
	return mc.count
}

// Run executes until HALT. INPUT blocks on in; OUTPUT hands values to out.
// Values emitted before an error remain with out.
func (mc *Machine) Run(in Input, out Output) error {
	if in == nil {
		in = Words()
	}

	for {
		state, err := mc.Step(in, out)

		if err != nil {
			return err
		}

		if state == STATE_HALTED {
			return nil
		}
	}
}

// Step executes a single instruction. With a nil input, INPUT leaves the
// machine untouched and reports STATE_AWAITING_INPUT. On error the machine
// is left as it was before the instruction.
func (mc *Machine) Step(in Input, out Output) (State, error) {
	pc := mc.State.Program

	instruction, err := mc.State.Memory.Load(pc)

	if err != nil {
		return STATE_READY, errors.Wrapf(err, "fetch @pc=%d", pc)
	}

	op, modes, err := Decode(instruction)

	if err != nil {
		return STATE_READY, errors.Wrapf(err, "decode @pc=%d", pc)
	}

	next := pc + op.Size()

	switch op {
	case OP_ADD, OP_MUL, OP_LT, OP_EQ:
		lhs, err := mc.operand(modes[0], pc+1)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		rhs, err := mc.operand(modes[1], pc+2)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		dest, err := mc.address(modes[2], pc+3)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		var result int64

		switch op {
		case OP_ADD:
			result = lhs + rhs
		case OP_MUL:
			result = lhs * rhs
		case OP_LT:
			if lhs < rhs {
				result = 1
			}
		case OP_EQ:
			if lhs == rhs {
				result = 1
			}
		}

		if err := mc.write(dest, result); err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

	case OP_IN:
		dest, err := mc.address(modes[0], pc+1)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		if in == nil {
			return STATE_AWAITING_INPUT, nil
		}

		value, err := in.ReadWord()

		if err != nil {
			return STATE_READY, err
		}

		if err := mc.write(dest, value); err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

	case OP_OUT:
		value, err := mc.operand(modes[0], pc+1)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		if out != nil {
			if err := out.WriteWord(value); err != nil {
				return STATE_READY, err
			}
		}

	case OP_JNZ, OP_JZ:
		cond, err := mc.operand(modes[0], pc+1)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		target, err := mc.operand(modes[1], pc+2)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		if (op == OP_JNZ) == (cond != 0) {
			if target < 0 {
				return STATE_READY, errors.Wrapf(
					&AddressingError{target, REASON_NEGATIVE},
					"%s @pc=%d",
					op,
					pc,
				)
			}

			next = target
		}

	case OP_ARB:
		offset, err := mc.operand(modes[0], pc+1)

		if err != nil {
			return STATE_READY, errors.Wrapf(err, "%s @pc=%d", op, pc)
		}

		mc.State.Base += offset

	case OP_HALT:
		return STATE_HALTED, nil
	}

	mc.State.Program = next
	mc.count++

	if mc.Debugger != nil {
		if err := mc.Debugger.Step(mc); err != nil {
			return STATE_READY, err
		}
	}

	return STATE_READY, nil
}

// Evaluates the read parameter stored at addr.
func (mc *Machine) operand(mode Mode, addr int64) (int64, error) {
	param, err := mc.State.Memory.Load(addr)

	if err != nil {
		return 0, err
	}

	switch mode {
	case MODE_IMMEDIATE:
		return param, nil
	case MODE_RELATIVE:
		return mc.read(param + mc.State.Base)
	default:
		return mc.read(param)
	}
}

// Resolves the write parameter stored at addr to a destination address.
func (mc *Machine) address(mode Mode, addr int64) (int64, error) {
	param, err := mc.State.Memory.Load(addr)

	if err != nil {
		return 0, err
	}

	switch mode {
	case MODE_IMMEDIATE:
		return 0, &AddressingError{addr, REASON_IMMEDIATE_WRITE}
	case MODE_RELATIVE:
		param += mc.State.Base
	}

	if param < 0 {
		return 0, &AddressingError{param, REASON_NEGATIVE}
	}

	if param >= MEMSPACE_LIMIT {
		return 0, &AddressingError{param, REASON_LIMIT}
	}

	return param, nil
}

func (mc *Machine) read(addr int64) (int64, error) {
	value, err := mc.State.Memory.Load(addr)

	if err == nil && mc.Debugger != nil {
		mc.Debugger.Read(addr, mc)
	}

	return value, err
}

func (mc *Machine) write(addr int64, value int64) error {
	if err := mc.State.Memory.Store(addr, value); err != nil {
		return err
	}

	if mc.Debugger != nil {
		mc.Debugger.Write(addr, mc)
	}

	return nil
}
