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
	"encoding/gob"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const SYMTABLE_EXT = ".icdb"

// SymTablePath derives the symbol table filename stored beside a program.
func SymTablePath(program string) string {
	base := filepath.Base(program)

	return filepath.Join(
		filepath.Dir(program),
		strings.TrimSuffix(base, filepath.Ext(base))+SYMTABLE_EXT,
	)
}

func (table *SymTable) Encode(w io.Writer) error {
	return errors.Wrap(gob.NewEncoder(w).Encode(table), "encode symbol table")
}

func DecodeSymTable(r io.Reader) (*SymTable, error) {
	var table SymTable

	if err := gob.NewDecoder(r).Decode(&table); err != nil {
		return nil, errors.Wrap(err, "decode symbol table")
	}

	if table.Symbols == nil {
		table.Symbols = make(map[int64]int64)
	}

	if table.Labels == nil {
		table.Labels = make(map[int64]string)
	}

	return &table, nil
}

func LoadSymTable(filename string) (*SymTable, error) {
	file, err := os.Open(filename)

	if err != nil {
		return nil, errors.Wrap(err, "load symbol table")
	}

	defer file.Close()

	return DecodeSymTable(file)
}
