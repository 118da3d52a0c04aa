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

// Decode splits an instruction word into its opcode and the addressing modes
// of its three parameter slots. Every slot is checked, including those the
// opcode does not use.
func Decode(instruction int64) (Opcode, [3]Mode, error) {
	var modes [3]Mode

	op := Opcode(instruction % 100)

	if op.Size() == 0 {
		return 0, modes, &DecodeError{instruction, 0, int64(op)}
	}

	divisor := int64(100)

	for i := range modes {
		digit := (instruction / divisor) % 10

		switch mode := Mode(digit); mode {
		case MODE_POSITION, MODE_IMMEDIATE, MODE_RELATIVE:
			modes[i] = mode
		default:
			return 0, modes, &DecodeError{instruction, i + 1, digit}
		}

		divisor *= 10
	}

	return op, modes, nil
}
