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

package assembler_test

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/exp/slices"

	"github.com/lassandro/intcode/pkg/assembler"
)

type testCase struct {
	Name     string
	Input    string
	Output   []int64
	SymTable *assembler.SymTable
}

type failCase struct {
	Name  string
	Input string
	Error error
}

func testAssemblerSuccess(t *testing.T, test *testCase) {
	var symtable *assembler.SymTable

	if test.SymTable != nil {
		symtable = assembler.NewSymTable("")
	}

	result, errs := assembler.AssembleIntcodeSource(
		strings.NewReader(test.Input), symtable,
	)

	if len(errs) > 0 {
		t.Fatal(errs[0])
	}

	if !slices.Equal(result, test.Output) {
		t.Fatalf(
			"Program encoding mismatch\nwant:%v\nhave:%v",
			test.Output,
			result,
		)
	}

	if test.SymTable == nil {
		return
	}

	if !reflect.DeepEqual(symtable.Symbols, test.SymTable.Symbols) {
		t.Errorf(
			"Symtable encoding mismatch\nwant:%v (test.SymTable.Symbols)\nhave:%v",
			test.SymTable.Symbols,
			symtable.Symbols,
		)
	}

	if !reflect.DeepEqual(symtable.Labels, test.SymTable.Labels) {
		t.Errorf(
			"Symtable encoding mismatch\nwant:%v (test.SymTable.Labels)\nhave:%v",
			test.SymTable.Labels,
			symtable.Labels,
		)
	}
}

func testAssemblerFail(t *testing.T, test *failCase) {
	file := strings.NewReader(test.Input)

	_, errs := assembler.AssembleIntcodeSource(file, nil)

	if test.Error == nil {
		panic("Fail case missing error value")
	}

	if len(errs) == 0 {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:<nil>",
			t.Name(),
			test.Error,
		)
	}

	if len(errs) > 1 {
		errTypes := make([]reflect.Type, 0, len(errs))
		for _, err := range errs {
			errTypes = append(errTypes, reflect.TypeOf(err))
		}

		t.Fatalf(
			"%s produced multiple errors:\n\twant:%T (test.Error)\n\thave:%v",
			t.Name(),
			test.Error,
			errTypes,
		)
	}

	if reflect.TypeOf(errs[0]) != reflect.TypeOf(test.Error) {
		t.Fatalf(
			"%s produced error of incorrect type"+
				"\nwant:%T (test.Error)\nhave:%T",
			t.Name(),
			test.Error,
			errs[0],
		)
	}

	if _, ok := errs[0].(assembler.TokenError); !ok {
		if _, ok := errs[0].(*assembler.OversizedBinaryError); !ok {
			t.Errorf("%T carries no source position", errs[0])
		}
	}
}

func testSuccess(t *testing.T, tests []testCase) {
	t.Run("Success", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerSuccess(t, &test)
			})
		}
	})
}

func testFail(t *testing.T, tests []failCase) {
	t.Run("Fail", func(t *testing.T) {
		for _, test := range tests {
			t.Run(test.Name, func(t *testing.T) {
				testAssemblerFail(t, &test)
			})
		}
	})
}

func TestArithmetic(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "ADD Position",
			Input:  `ADD 9, 10, 3`,
			Output: []int64{1, 9, 10, 3},
		},
		{
			Name:   "ADD Mixed Modes",
			Input:  `ADD #1, ~2, 3`,
			Output: []int64{2101, 1, 2, 3},
		},
		{
			Name:   "ADD Relative Destination",
			Input:  `ADD 0, 0, ~5`,
			Output: []int64{20001, 0, 0, 5},
		},
		{
			Name:   "MUL",
			Input:  `MUL 4, #3, 4`,
			Output: []int64{1002, 4, 3, 4},
		},
		{
			Name:   "LT",
			Input:  `LT ~1, #8, ~2`,
			Output: []int64{21207, 1, 8, 2},
		},
		{
			Name:   "EQ",
			Input:  `EQ 1, 2, 3`,
			Output: []int64{8, 1, 2, 3},
		},
		{
			Name:   "Lowercase",
			Input:  "add 1,2,3 ; comment\n; full line\n  halt",
			Output: []int64{1, 1, 2, 3, 99},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "ADD Immediate Destination",
			Input: `ADD 1, 2, #3`,
			Error: &assembler.InvalidModeError{},
		},
		{
			Name:  "ADD Missing Operand",
			Input: `ADD 1, 2`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "ADD String",
			Input: `ADD 1, "2", 3`,
			Error: &assembler.InvalidOperandError{},
		},
		{
			Name:  "ADD Bad Literal",
			Input: `ADD 12ab, 1, 2`,
			Error: &assembler.InvalidLiteralError{},
		},
		{
			Name:  "ADD Bad Sign",
			Input: `ADD 1-2, 1, 2`,
			Error: &assembler.UnexpectedCharacterError{},
		},
	})
}

func TestInputOutput(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   "IN OUT",
			Input:  "IN 0\nOUT 0\nHALT",
			Output: []int64{3, 0, 4, 0, 99},
		},
		{
			Name:   "OUT Immediate",
			Input:  `OUT #-7`,
			Output: []int64{104, -7},
		},
		{
			Name:   "IN Relative",
			Input:  `IN ~1`,
			Output: []int64{203, 1},
		},
		{
			Name:   "OUT Hex",
			Input:  "OUT #x2A\nOUT 0x10",
			Output: []int64{104, 42, 4, 16},
		},
		{
			Name:   "ARB",
			Input:  "ARB #3\nARB ~-1",
			Output: []int64{109, 3, 209, -1},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "IN Immediate",
			Input: `IN #1`,
			Error: &assembler.InvalidModeError{},
		},
		{
			Name:  "OUT Extra Operand",
			Input: `OUT 1, 2`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "HALT Operand",
			Input: `HALT 1`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
		{
			Name:  "Unexpected Character",
			Input: `OUT 1 $`,
			Error: &assembler.UnexpectedCharacterError{},
		},
		{
			Name:  "Non-ASCII Identifier",
			Input: `OUT é`,
			Error: &assembler.OversizedCharacterError{},
		},
	})
}

func TestLabels(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name: "Echo Loop",
			Input: `
			start:
				IN 100
				JZ 100, #done
				OUT 100
				JNZ #1, #start
			done:
				HALT
			`,
			Output: []int64{3, 100, 1006, 100, 10, 4, 100, 1105, 1, 0, 99},
		},
		{
			Name:   "Symbols",
			Input:  "IN 0\nloop: OUT 0\nHALT\n",
			Output: []int64{3, 0, 4, 0, 99},
			SymTable: &assembler.SymTable{
				Symbols: map[int64]int64{0: 0, 2: 5, 4: 17},
				Labels:  map[int64]string{2: "loop"},
			},
		},
		{
			Name:   "Label Without Colon",
			Input:  "top JNZ #1, #top",
			Output: []int64{1105, 1, 0},
		},
	})

	testFail(t, []failCase{
		{
			Name:  "Unknown Label",
			Input: `OUT foo`,
			Error: &assembler.UnknownLabelError{},
		},
		{
			Name:  "Redeclared Label",
			Input: "a: HALT\na: HALT",
			Error: &assembler.RedeclaredLabelError{},
		},
		{
			Name:  "Unknown Instruction",
			Input: `FOO 1`,
			Error: &assembler.UnknownIdentifierError{},
		},
		{
			Name:  "Unknown Directive",
			Input: `.WORD 1`,
			Error: &assembler.UnknownIdentifierError{},
		},
	})
}

func TestFill(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   ".FILL",
			Input:  ".FILL 5\n.FILL -x10\n.FILL here\nhere: .FILL 0",
			Output: []int64{5, -16, 3, 0},
		},
	})

	testFail(t, []failCase{
		{
			Name:  ".FILL Immediate",
			Input: `.FILL #3`,
			Error: &assembler.InvalidModeError{},
		},
		{
			Name:  ".FILL String",
			Input: `.FILL "3"`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestBlkw(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   ".BLKW",
			Input:  "HALT\n.BLKW 3\nend: .FILL end",
			Output: []int64{99, 0, 0, 0, 4},
		},
		{
			Name:   ".BLKW Trailing",
			Input:  "HALT\n.BLKW x2",
			Output: []int64{99, 0, 0},
		},
	})

	testFail(t, []failCase{
		{
			Name:  ".BLKW Negative",
			Input: `.BLKW -1`,
			Error: &assembler.InvalidLiteralError{},
		},
		{
			Name:  ".BLKW Label",
			Input: `LABEL .BLKW LABEL`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestStringz(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   ".STRINGZ",
			Input:  `.STRINGZ "hi\n"`,
			Output: []int64{104, 105, 10, 0},
		},
		{
			Name:   ".STRINGZ Separators",
			Input:  `.STRINGZ "a, b; \"c\""`,
			Output: []int64{97, 44, 32, 98, 59, 32, 34, 99, 34, 0},
		},
	})

	testFail(t, []failCase{
		{
			Name:  ".STRINGZ Unterminated",
			Input: `.STRINGZ "abc`,
			Error: &assembler.InvalidStringError{},
		},
		{
			Name:  ".STRINGZ Literal",
			Input: `.STRINGZ 42`,
			Error: &assembler.InvalidOperandError{},
		},
	})
}

func TestEnd(t *testing.T) {
	testSuccess(t, []testCase{
		{
			Name:   ".END",
			Input:  "HALT\n.END\nHALT",
			Output: []int64{99},
		},
	})

	testFail(t, []failCase{
		{
			Name:  ".END Operand",
			Input: `.END 1`,
			Error: &assembler.InvalidNumArgumentsError{},
		},
	})
}
