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
	"fmt"
)

type Opcode int64
type Mode int64
type State int
type AddressingReason int

type MachineState struct {
	Program int64 // Program counter
	Base    int64 // Relative base
	Memory  Memory
}

// MachineDebugger receives a callback after every executed instruction and
// on every data access. An error returned from Step aborts Run.
type MachineDebugger interface {
	Step(mc *Machine) error
	Read(addr int64, mc *Machine)
	Write(addr int64, mc *Machine)
}

type Machine struct {
	State    MachineState
	Debugger MachineDebugger

	image []int64
	count int64
}

type Option func(*Machine) error

func (op Opcode) Size() int64 {
	switch op {
	case OP_ADD, OP_MUL, OP_LT, OP_EQ:
		return 4
	case OP_JNZ, OP_JZ:
		return 3
	case OP_IN, OP_OUT, OP_ARB:
		return 2
	case OP_HALT:
		return 1
	}

	return 0
}

func (op Opcode) String() string {
	switch op {
	case OP_ADD:
		return "ADD"
	case OP_MUL:
		return "MUL"
	case OP_IN:
		return "IN"
	case OP_OUT:
		return "OUT"
	case OP_JNZ:
		return "JNZ"
	case OP_JZ:
		return "JZ"
	case OP_LT:
		return "LT"
	case OP_EQ:
		return "EQ"
	case OP_ARB:
		return "ARB"
	case OP_HALT:
		return "HALT"
	}

	return fmt.Sprintf("Opcode(%d)", int64(op))
}

func (mode Mode) String() string {
	switch mode {
	case MODE_POSITION:
		return "position"
	case MODE_IMMEDIATE:
		return "immediate"
	case MODE_RELATIVE:
		return "relative"
	}

	return fmt.Sprintf("Mode(%d)", int64(mode))
}

func (s State) String() string {
	switch s {
	case STATE_READY:
		return "ready"
	case STATE_AWAITING_INPUT:
		return "awaiting input"
	case STATE_HALTED:
		return "halted"
	}

	return fmt.Sprintf("State(%d)", int(s))
}

// DecodeError reports an instruction word with an unknown opcode (Param 0)
// or an unknown addressing mode digit (Param 1 to 3).
type DecodeError struct {
	Instruction int64
	Param       int
	Digit       int64
}

func (err *DecodeError) Error() string {
	if err.Param == 0 {
		return fmt.Sprintf(
			"Unknown opcode %d in instruction %d", err.Digit, err.Instruction,
		)
	}

	return fmt.Sprintf(
		"Unknown addressing mode %d for parameter %d in instruction %d",
		err.Digit,
		err.Param,
		err.Instruction,
	)
}

type AddressingError struct {
	Addr   int64
	Reason AddressingReason
}

func (err *AddressingError) Error() string {
	switch err.Reason {
	case REASON_IMMEDIATE_WRITE:
		return fmt.Sprintf(
			"Write through immediate mode (parameter at %d)", err.Addr,
		)
	case REASON_LIMIT:
		return fmt.Sprintf(
			"Address %d exceeds memory limit of %d words",
			err.Addr,
			MEMSPACE_LIMIT,
		)
	default:
		return fmt.Sprintf("Negative address %d", err.Addr)
	}
}

type AdapterMisuseError struct {
	State State
}

func (err *AdapterMisuseError) Error() string {
	return fmt.Sprintf(
		"Resume called outside of an input wait\n\twant:%s\n\thave:%s",
		STATE_AWAITING_INPUT,
		err.State,
	)
}
