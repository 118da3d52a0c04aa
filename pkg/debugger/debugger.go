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

package debugger

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
)

func (dbg *Debugger) Step(mc *machine.Machine) error {
	stop := dbg.Break || dbg.tripped

	for _, breakpoint := range dbg.Breakpoints {
		if mc.State.Program == breakpoint.Addr {
			stop = true
			break
		}
	}

	if !stop {
		return nil
	}

	dbg.tripped = false

	if dbg.HandleBreak == nil {
		return ErrBreak
	}

	return dbg.HandleBreak(dbg, mc)
}

func (dbg *Debugger) Read(addr int64, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == WriteWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.tripped = true

			if dbg.HandleRead != nil {
				dbg.HandleRead(addr, dbg, mc)
			}

			break
		}
	}
}

func (dbg *Debugger) Write(addr int64, mc *machine.Machine) {
	for _, watchpoint := range dbg.Watchpoints {
		if watchpoint.Type == ReadWatch {
			continue
		}

		if addr == watchpoint.Addr {
			dbg.tripped = true

			if dbg.HandleWrite != nil {
				dbg.HandleWrite(addr, dbg, mc)
			}

			break
		}
	}
}

// Lookup resolves an address argument: a label from the symbol table, or a
// decimal or hex literal.
func (dbg *Debugger) Lookup(arg string) (int64, bool) {
	if dbg.SymTable != nil {
		if addr, ok := dbg.SymTable.Address(arg); ok {
			return addr, true
		}
	}

	if addr, err := encoding.DecodeLiteral(arg); err == nil && addr >= 0 {
		return addr, true
	}

	return 0, false
}

func (dbg *Debugger) out() io.Writer {
	if dbg.Output == nil {
		return os.Stdout
	}

	return dbg.Output
}

func (dbg *Debugger) PrintSource(addr int64, count int) {
	w := dbg.out()

	if dbg.Source == nil {
		fmt.Fprintln(w, "No source file loaded")
		return
	}

	if dbg.SymTable == nil {
		fmt.Fprintln(w, "No symbol table loaded")
		return
	}

	offset, exists := dbg.SymTable.Symbols[addr]

	if !exists {
		fmt.Fprintf(w, "No instruction found at %d\n", addr)
		return
	}

	if _, err := dbg.Source.Seek(offset, io.SeekStart); err != nil {
		fmt.Fprintln(w, err)
		return
	}

	lines := make(map[int64]int64, len(dbg.SymTable.Symbols))

	for lineaddr, linebyte := range dbg.SymTable.Symbols {
		if prev, ok := lines[linebyte]; !ok || lineaddr < prev {
			lines[linebyte] = lineaddr
		}
	}

	scanner := bufio.NewScanner(dbg.Source)

	for i := 0; i < count && scanner.Scan(); i++ {
		line := scanner.Text()

		if lineaddr, ok := lines[offset]; ok {
			fmt.Fprintf(w, "\033[1m[%6d]\033[0m ", lineaddr)
		} else {
			fmt.Fprint(w, "\033[1;30m~~~~~~~~\033[0m ")
		}

		fmt.Fprintln(w, line)

		offset += int64(len(line) + 1)
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintln(w, err)
	}
}

func (dbg *Debugger) PrintMem(mc *machine.MachineState, addr, count int64) {
	w := dbg.out()

	for i := addr; i < addr+count; i++ {
		if i == addr {
			fmt.Fprintf(w, "\033[1m[%6d]\033[0m ", i)
		} else if (i-addr)%4 == 0 {
			fmt.Fprintln(w)
			fmt.Fprintf(w, "\033[1m[%6d]\033[0m ", i)
		}

		result, err := mc.Memory.Load(i)

		if err != nil {
			fmt.Fprint(w, "\033[1;30m-\033[0m ")
		} else if result == 0 {
			fmt.Fprintf(w, "\033[1;30m%d\033[0m ", result)
		} else {
			fmt.Fprintf(w, "%d ", result)
		}
	}

	fmt.Fprintln(w)
}

// PrintDisasm lists count instructions starting at addr, marking the one
// at the program counter.
func (dbg *Debugger) PrintDisasm(mc *machine.Machine, addr int64, count int) {
	w := dbg.out()
	words := mc.State.Memory.Words()

	for i := 0; i < count; i++ {
		if dbg.SymTable != nil {
			if label, ok := dbg.SymTable.Labels[addr]; ok {
				fmt.Fprintf(w, "\033[1;30m%s:\033[0m\n", label)
			}
		}

		marker := " "

		if addr == mc.State.Program {
			marker = ">"
		}

		var line strings.Builder

		next := assembler.Disassemble(words, addr, &line)

		fmt.Fprintf(w, "%s\033[1m[%6d]\033[0m %s\n", marker, addr, line.String())

		addr = next
	}
}
