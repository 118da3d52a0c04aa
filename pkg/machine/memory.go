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
	"golang.org/x/exp/slices"
)

// Memory is a zero-extended word array. Reads past the end yield zero and
// never allocate; stores past the end grow the array.
type Memory struct {
	cells []int64
}

func NewMemory(image []int64) Memory {
	return Memory{cells: slices.Clone(image)}
}

func (m *Memory) Load(addr int64) (int64, error) {
	if addr < 0 {
		return 0, &AddressingError{addr, REASON_NEGATIVE}
	}

	if addr >= int64(len(m.cells)) {
		return 0, nil
	}

	return m.cells[addr], nil
}

// Store writes value at addr, growing memory as needed. Negative addresses
// and addresses at or above MEMSPACE_LIMIT (2^32 words) fail with an
// *AddressingError.
func (m *Memory) Store(addr int64, value int64) error {
	if addr < 0 {
		return &AddressingError{addr, REASON_NEGATIVE}
	}

	if addr >= MEMSPACE_LIMIT {
		return &AddressingError{addr, REASON_LIMIT}
	}

	if size := int(addr) + 1; size > len(m.cells) {
		// Nothing is ever written past len, so the exposed tail is zero.
		m.cells = slices.Grow(m.cells, size-len(m.cells))[:size]
	}

	m.cells[addr] = value

	return nil
}

// Len reports the current extent of memory in words.
func (m *Memory) Len() int {
	return len(m.cells)
}

// Words returns a copy of the current memory contents.
func (m *Memory) Words() []int64 {
	return slices.Clone(m.cells)
}
