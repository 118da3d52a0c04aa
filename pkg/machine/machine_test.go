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

package machine_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"

	"github.com/lassandro/intcode/pkg/machine"
)

type testCase struct {
	Name    string
	Program []int64
	Input   []int64
	Output  []int64
	Memory  map[int64]int64
}

const (
	quine   = "109,1,204,-1,1001,100,1,100,1008,100,16,101,1006,101,0,99"
	compare = "3,21,1008,21,8,20,1005,20,22,107,8,21,20,1006,20,31,1106,0," +
		"36,98,0,0,1002,21,125,20,4,20,1105,1,46,104,999,1105,1,46,1101,1000," +
		"1,20,4,20,1105,1,46,98,99"
)

func parse(t *testing.T, program string) []int64 {
	t.Helper()

	mc, err := machine.Load(strings.NewReader(program))

	if err != nil {
		t.Fatal(err)
	}

	return mc.Image()
}

func testMachineSuccess(t *testing.T, test *testCase) {
	mc, err := machine.New(test.Program)

	if err != nil {
		t.Fatal(err)
	}

	var out machine.Collector

	if err := mc.Run(machine.Words(test.Input...), &out); err != nil {
		t.Fatalf("%+v", err)
	}

	if !slices.Equal(out.Words, test.Output) {
		t.Errorf(
			"Output mismatch\nwant:%v (test.Output)\nhave:%v",
			test.Output,
			out.Words,
		)
	}

	for addr, want := range test.Memory {
		have, err := mc.State.Memory.Load(addr)

		if err != nil {
			t.Fatal(err)
		}

		if have != want {
			t.Fatalf(
				"Memory value mismatch"+
					"\nwant:%d (test.Memory[%d])\nhave:%d\n%s",
				want,
				addr,
				have,
				spew.Sdump(mc.State.Memory.Words()),
			)
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			test := test
			t.Run(test.Name, func(t *testing.T) {
				testMachineSuccess(t, &test)
			})
		}
	})
}

func TestArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "ADD Position",
			Program: []int64{1, 0, 0, 0, 99},
			Memory:  map[int64]int64{0: 2},
		},
		{
			Name:    "ADD MUL Chain",
			Program: []int64{1, 0, 0, 0, 2, 3, 0, 3, 99},
			Memory:  map[int64]int64{0: 2, 3: 0},
		},
		{
			Name:    "ADD MUL Program",
			Program: []int64{1, 9, 10, 3, 2, 3, 11, 0, 99, 30, 40, 50},
			Memory:  map[int64]int64{0: 3500, 3: 70},
		},
		{
			Name:    "MUL Into Halt",
			Program: []int64{1, 1, 1, 4, 99, 5, 6, 0, 99},
			Memory:  map[int64]int64{0: 30, 4: 2},
		},
		{
			Name:    "MUL Immediate",
			Program: []int64{1002, 4, 3, 4, 33},
			Memory:  map[int64]int64{4: 99},
		},
		{
			Name:    "ADD Negative Immediate",
			Program: []int64{1101, 100, -1, 4, 0},
			Memory:  map[int64]int64{4: 99},
		},
		{
			Name:    "ADD Overflow Wraps",
			Program: []int64{1101, 9223372036854775807, 1, 0, 4, 0, 99},
			Output:  []int64{-9223372036854775808},
		},
		{
			Name:    "MUL Large",
			Program: []int64{1102, 34915192, 34915192, 7, 4, 7, 99, 0},
			Output:  []int64{1219070632396864},
		},
	})
}

func TestInputOutput(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "Identity Echo",
			Program: []int64{3, 0, 4, 0, 99},
			Input:   []int64{42},
			Output:  []int64{42},
			Memory:  map[int64]int64{0: 42},
		},
		{
			Name:    "Output Literal",
			Program: []int64{4, 3, 99, 1337},
			Output:  []int64{1337},
		},
		{
			Name:    "Output Immediate",
			Program: []int64{104, 1125899906842624, 99},
			Output:  []int64{1125899906842624},
		},
		{
			Name:    "Unused Mode Digits",
			Program: []int64{1099},
		},
	})
}

func TestCompareJump(t *testing.T) {
	tests := make([]testCase, 0)

	equal8 := []int64{3, 9, 8, 9, 10, 9, 4, 9, 99, -1, 8}
	less8 := []int64{3, 3, 1107, -1, 8, 3, 4, 3, 99}
	jumpZero := []int64{3, 12, 6, 12, 15, 1, 13, 14, 13, 4, 13, 99, -1, 0, 1, 9}
	jumpNonZero := []int64{3, 3, 1105, -1, 9, 1101, 0, 0, 12, 4, 12, 99, 1}

	for _, input := range []int64{7, 8, 9, 0} {
		var eq, lt, nz int64

		if input == 8 {
			eq = 1
		}

		if input < 8 {
			lt = 1
		}

		if input != 0 {
			nz = 1
		}

		tests = append(tests,
			testCase{
				Name:    "EQ Position " + fmt.Sprint(input),
				Program: equal8,
				Input:   []int64{input},
				Output:  []int64{eq},
			},
			testCase{
				Name:    "LT Immediate " + fmt.Sprint(input),
				Program: less8,
				Input:   []int64{input},
				Output:  []int64{lt},
			},
			testCase{
				Name:    "JZ Position " + fmt.Sprint(input),
				Program: jumpZero,
				Input:   []int64{input},
				Output:  []int64{nz},
			},
			testCase{
				Name:    "JNZ Immediate " + fmt.Sprint(input),
				Program: jumpNonZero,
				Input:   []int64{input},
				Output:  []int64{nz},
			},
		)
	}

	program := parse(t, compare)

	for input, want := range map[int64]int64{7: 999, 8: 1000, 9: 1001} {
		tests = append(tests, testCase{
			Name:    "Compare Program " + fmt.Sprint(input),
			Program: program,
			Input:   []int64{input},
			Output:  []int64{want},
		})
	}

	testSuccess(t, tests)
}

func TestRelativeBase(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "Relative Write",
			Program: []int64{109, 5, 21101, 7, 3, 0, 4, 0, 99},
			Output:  []int64{109},
			Memory:  map[int64]int64{5: 10},
		},
		{
			Name:    "Relative Read",
			Program: []int64{109, 1, 204, -1, 99},
			Output:  []int64{109},
		},
		{
			Name:    "Relative Base Accumulates",
			Program: []int64{109, 3, 109, -1, 204, 1, 99},
			Output:  []int64{-1},
		},
		{
			Name:    "Relative Input",
			Program: []int64{109, 10, 203, 0, 204, 0, 99},
			Input:   []int64{-5},
			Output:  []int64{-5},
			Memory:  map[int64]int64{10: -5},
		},
		{
			Name:    "Quine",
			Program: parse(t, quine),
			Output:  parse(t, quine),
		},
	})
}

func TestGrowableMemory(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:    "Write Past Image",
			Program: []int64{1101, 0, 0, 2000, 4, 2000, 99},
			Output:  []int64{0},
			Memory:  map[int64]int64{2000: 0},
		},
		{
			Name:    "Write Then Read Past Image",
			Program: []int64{1101, 40, 2, 5000, 4, 5000, 99},
			Output:  []int64{42},
			Memory:  map[int64]int64{4999: 0, 5000: 42, 5001: 0},
		},
		{
			Name:    "Read Past Image",
			Program: []int64{4, 100000, 99},
			Output:  []int64{0},
		},
	})

	mc, err := machine.New([]int64{1101, 0, 0, 2000, 99})

	if err != nil {
		t.Fatal(err)
	}

	if err := mc.Run(nil, nil); err != nil {
		t.Fatal(err)
	}

	if have := mc.State.Memory.Len(); have != 2001 {
		t.Errorf("Memory extent mismatch\nwant:2001\nhave:%d", have)
	}
}

type failCase struct {
	Name    string
	Program []int64
	Input   []int64
	Output  []int64
	Error   error
	PC      int64
}

func TestFailures(t *testing.T) {
	tests := []failCase{
		{
			Name:    "Negative Input Destination",
			Program: []int64{3, -1, 99},
			Input:   []int64{0},
			Error:   &machine.AddressingError{Addr: -1, Reason: machine.REASON_NEGATIVE},
		},
		{
			Name:    "Unknown Opcode",
			Program: []int64{1, 0, 0, 0, 42},
			Error:   &machine.DecodeError{Instruction: 42, Param: 0, Digit: 42},
			PC:      4,
		},
		{
			Name:    "Unknown Mode",
			Program: []int64{301, 0, 0, 0, 99},
			Error:   &machine.DecodeError{Instruction: 301, Param: 1, Digit: 3},
		},
		{
			Name:    "Unknown Mode Unused Slot",
			Program: []int64{3099},
			Error:   &machine.DecodeError{Instruction: 3099, Param: 2, Digit: 3},
		},
		{
			Name:    "Negative Instruction",
			Program: []int64{-1},
			Error:   &machine.DecodeError{Instruction: -1, Param: 0, Digit: -1},
		},
		{
			Name:    "Immediate Write",
			Program: []int64{11101, 1, 1, 0, 99},
			Error:   &machine.AddressingError{Addr: 3, Reason: machine.REASON_IMMEDIATE_WRITE},
		},
		{
			Name:    "Negative Read",
			Program: []int64{4, -3, 99},
			Error:   &machine.AddressingError{Addr: -3, Reason: machine.REASON_NEGATIVE},
		},
		{
			Name:    "Negative Relative Read",
			Program: []int64{204, -1, 99},
			Error:   &machine.AddressingError{Addr: -1, Reason: machine.REASON_NEGATIVE},
		},
		{
			Name:    "Negative Jump",
			Program: []int64{1105, 1, -7, 99},
			Error:   &machine.AddressingError{Addr: -7, Reason: machine.REASON_NEGATIVE},
		},
		{
			Name:    "Jump Not Taken Ignores Target",
			Program: []int64{1106, 1, -7, 104, 5, 42},
			Output:  []int64{5},
			Error:   &machine.DecodeError{Instruction: 42, Param: 0, Digit: 42},
			PC:      5,
		},
		{
			Name:    "Output Retained Before Fault",
			Program: []int64{104, 7, 104, 8, 42},
			Output:  []int64{7, 8},
			Error:   &machine.DecodeError{Instruction: 42, Param: 0, Digit: 42},
			PC:      4,
		},
		{
			Name:    "Memory Limit",
			Program: []int64{1101, 1, 1, 1 << 40, 99},
			Error:   &machine.AddressingError{Addr: 1 << 40, Reason: machine.REASON_LIMIT},
		},
		{
			Name:    "Input Exhausted",
			Program: []int64{3, 0, 3, 0, 99},
			Input:   []int64{1},
			Error:   machine.ErrInputExhausted,
			PC:      2,
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.Name, func(t *testing.T) {
			mc, err := machine.New(test.Program)

			if err != nil {
				t.Fatal(err)
			}

			var out machine.Collector

			err = mc.Run(machine.Words(test.Input...), &out)

			switch want := test.Error.(type) {
			case *machine.AddressingError:
				var have *machine.AddressingError

				if !errors.As(err, &have) || *have != *want {
					t.Fatalf("Error mismatch\nwant:%v\nhave:%v", want, err)
				}
			case *machine.DecodeError:
				var have *machine.DecodeError

				if !errors.As(err, &have) || *have != *want {
					t.Fatalf("Error mismatch\nwant:%v\nhave:%v", want, err)
				}
			default:
				if err != want {
					t.Fatalf("Error mismatch\nwant:%v\nhave:%v", want, err)
				}
			}

			if mc.State.Program != test.PC {
				t.Errorf(
					"Program counter mismatch\nwant:%d (test.PC)\nhave:%d",
					test.PC,
					mc.State.Program,
				)
			}

			if !slices.Equal(out.Words, test.Output) {
				t.Errorf(
					"Output mismatch\nwant:%v (test.Output)\nhave:%v",
					test.Output,
					out.Words,
				)
			}
		})
	}
}

func TestFailureLeavesStateUntouched(t *testing.T) {
	mc, err := machine.New([]int64{1, 0, 0, 0, 1101, 5, 5, -2, 99})

	if err != nil {
		t.Fatal(err)
	}

	err = mc.Run(nil, nil)

	var addrErr *machine.AddressingError

	if !errors.As(err, &addrErr) {
		t.Fatalf("Error mismatch\nwant:*machine.AddressingError\nhave:%v", err)
	}

	want := []int64{2, 0, 0, 0, 1101, 5, 5, -2, 99}

	if have := mc.State.Memory.Words(); !slices.Equal(have, want) {
		t.Errorf("Memory mismatch\nwant:%v\nhave:%v", want, have)
	}

	if mc.State.Program != 4 || mc.State.Base != 0 {
		t.Errorf(
			"Register mismatch\nwant:PC=4 RB=0\nhave:PC=%d RB=%d",
			mc.State.Program,
			mc.State.Base,
		)
	}

	if have := mc.InstructionCount(); have != 1 {
		t.Errorf("Instruction count mismatch\nwant:1\nhave:%d", have)
	}

	// Retrying reproduces the same fault.
	if err := mc.Run(nil, nil); !errors.As(err, &addrErr) {
		t.Errorf("Error mismatch\nwant:*machine.AddressingError\nhave:%v", err)
	}
}

func TestIOErrorsPropagateUnchanged(t *testing.T) {
	sentinel := errors.New("sentinel")

	mc, err := machine.New([]int64{3, 0, 99})

	if err != nil {
		t.Fatal(err)
	}

	in := machine.InputFunc(func() (int64, error) { return 0, sentinel })

	if err := mc.Run(in, nil); err != sentinel {
		t.Errorf("Input error mismatch\nwant:%v\nhave:%v", sentinel, err)
	}

	mc, err = machine.New([]int64{104, 1, 99})

	if err != nil {
		t.Fatal(err)
	}

	out := machine.OutputFunc(func(int64) error { return sentinel })

	if err := mc.Run(nil, out); err != sentinel {
		t.Errorf("Output error mismatch\nwant:%v\nhave:%v", sentinel, err)
	}

	if mc.State.Program != 0 {
		t.Errorf("Program counter mismatch\nwant:0\nhave:%d", mc.State.Program)
	}
}

func TestHaltIsIdempotent(t *testing.T) {
	mc, err := machine.New([]int64{104, 1, 99})

	if err != nil {
		t.Fatal(err)
	}

	var out machine.Collector

	for i := 0; i < 3; i++ {
		if err := mc.Run(nil, &out); err != nil {
			t.Fatal(err)
		}
	}

	if !slices.Equal(out.Words, []int64{1}) {
		t.Errorf("Output mismatch\nwant:[1]\nhave:%v", out.Words)
	}

	if mc.State.Program != 2 {
		t.Errorf("Program counter mismatch\nwant:2\nhave:%d", mc.State.Program)
	}
}
