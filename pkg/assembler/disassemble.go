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

package assembler

import (
	"fmt"
	"io"
	"strings"

	"github.com/lassandro/intcode/pkg/machine"
)

// Disassemble writes the instruction at addr in assembly syntax and returns
// the address of the next one. Words that do not hold a well-formed
// instruction, including ones with mode digits on unused parameters, are
// written as .FILL data so the listing reassembles to the same image.
func Disassemble(program []int64, addr int64, w io.Writer) int64 {
	if addr < 0 || addr >= int64(len(program)) {
		fmt.Fprintf(w, ".FILL 0")
		return addr + 1
	}

	instruction := program[addr]

	op, modes, err := machine.Decode(instruction)
	size := op.Size()

	if err != nil || addr+size > int64(len(program)) {
		fmt.Fprintf(w, ".FILL %d", instruction)
		return addr + 1
	}

	canonical := int64(op)
	scale := int64(100)

	for i := int64(0); i < size-1; i++ {
		canonical += int64(modes[i]) * scale
		scale *= 10
	}

	if canonical != instruction {
		fmt.Fprintf(w, ".FILL %d", instruction)
		return addr + 1
	}

	operands := make([]string, 0, size-1)

	for i := int64(0); i < size-1; i++ {
		param := program[addr+1+i]

		switch modes[i] {
		case machine.MODE_IMMEDIATE:
			operands = append(operands, fmt.Sprintf("%c%d", PREFIX_IMMEDIATE, param))
		case machine.MODE_RELATIVE:
			operands = append(operands, fmt.Sprintf("%c%d", PREFIX_RELATIVE, param))
		default:
			operands = append(operands, fmt.Sprintf("%d", param))
		}
	}

	if len(operands) == 0 {
		fmt.Fprint(w, op)
	} else {
		fmt.Fprintf(w, "%s %s", op, strings.Join(operands, ", "))
	}

	return addr + size
}

// Listing disassembles a whole image, one statement per line. Labels from
// symtable, if given, are emitted ahead of the statement they name.
func Listing(program []int64, symtable *SymTable, w io.Writer) error {
	for addr := int64(0); addr < int64(len(program)); {
		if symtable != nil {
			if label, ok := symtable.Labels[addr]; ok {
				if _, err := fmt.Fprintf(w, "%s:\n", label); err != nil {
					return err
				}
			}
		}

		var line strings.Builder

		next := Disassemble(program, addr, &line)

		if _, err := fmt.Fprintf(w, "\t%s\t; %d\n", line.String(), addr); err != nil {
			return err
		}

		addr = next
	}

	return nil
}
