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

package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/lassandro/intcode/pkg/debugger"
	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
)

var errQuit = errors.New("quit")

var lastcmd []string

func debugBreak(dbg *debugger.Debugger, args []string) {
	const usage = "break [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "break add [addr|label]"

		if len(args) != 1 {
			log.Println(usage)
			return
		}

		addr, ok := dbg.Lookup(args[0])

		if !ok {
			log.Printf("Unable to find '%s'\n", args[0])
			return
		}

		for _, breakpoint := range dbg.Breakpoints {
			if breakpoint.Addr == addr {
				return
			}
		}

		dbg.Breakpoints = append(dbg.Breakpoints, debugger.Breakpoint{Addr: addr})

		fmt.Printf("Breakpoint added [%d]\n", addr)

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("break list")
			return
		}

		fmtstring := indexFormat(len(dbg.Breakpoints), "%d%s\n")

		for i, breakpoint := range dbg.Breakpoints {
			fmt.Printf(fmtstring, i, breakpoint.Addr, labelSuffix(dbg, breakpoint.Addr))
		}

	case "r", "rm", "remove":
		i, ok := parseIndex(args, len(dbg.Breakpoints), "break remove [#]")

		if !ok {
			return
		}

		dbg.Breakpoints = append(dbg.Breakpoints[:i], dbg.Breakpoints[i+1:]...)
		fmt.Printf("Breakpoint removed [%d]\n", i)

	case "clear":
		dbg.Breakpoints = nil
		fmt.Println("Breakpoints reset")

	default:
		log.Printf("break: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugWatch(dbg *debugger.Debugger, args []string) {
	const usage = "watch [add|list|remove|clear]"

	if len(args) == 0 {
		args = append(args, "l")
	}

	cmd := args[0]
	args = args[1:]

	switch cmd {
	case "a", "add":
		const usage = "watch add [addr|label] [read|write|readwrite]"

		if len(args) != 2 {
			log.Println(usage)
			return
		}

		addr, ok := dbg.Lookup(args[0])

		if !ok {
			log.Printf("Unable to find '%s'\n", args[0])
			return
		}

		var wtype debugger.WatchpointType

		switch args[1] {
		case "r", "read":
			wtype = debugger.ReadWatch
		case "w", "write":
			wtype = debugger.WriteWatch
		case "rw", "rwrite", "readwrite":
			wtype = debugger.ReadWriteWatch
		default:
			log.Println(usage)
			return
		}

		for _, watchpoint := range dbg.Watchpoints {
			if watchpoint.Addr == addr && watchpoint.Type == wtype {
				return
			}
		}

		dbg.Watchpoints = append(
			dbg.Watchpoints,
			debugger.Watchpoint{Addr: addr, Type: wtype},
		)

		fmt.Printf("Watchpoint added [%d] (%s)\n", addr, wtype)

	case "l", "ls", "list":
		if len(args) != 0 {
			log.Println("watch list")
			return
		}

		fmtstring := indexFormat(len(dbg.Watchpoints), "%d %s\n")

		for i, watchpoint := range dbg.Watchpoints {
			fmt.Printf(fmtstring, i, watchpoint.Addr, watchpoint.Type)
		}

	case "r", "rm", "remove":
		i, ok := parseIndex(args, len(dbg.Watchpoints), "watch remove [#]")

		if !ok {
			return
		}

		dbg.Watchpoints = append(dbg.Watchpoints[:i], dbg.Watchpoints[i+1:]...)
		fmt.Printf("Watchpoint removed [%d]\n", i)

	case "clear":
		dbg.Watchpoints = nil
		fmt.Println("Watchpoints reset")

	default:
		log.Printf("watch: '%s' is not a valid command\n", cmd)
		log.Println(usage)
	}
}

func debugReg(mc *machine.Machine, args []string) {
	const usage = "register [PC|RB] [value]"

	if len(args) == 0 {
		fmt.Printf(
			"\033[1mPC:\033[0m %d\t\033[1mRB:\033[0m %d\t\033[1mCount:\033[0m %d\n",
			mc.State.Program,
			mc.State.Base,
			mc.InstructionCount(),
		)

		return
	}

	if len(args) != 2 {
		log.Println(usage)
		return
	}

	value, err := encoding.DecodeLiteral(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	switch reg := strings.ToUpper(args[0]); reg {
	case "PC":
		if value < 0 {
			log.Println("Program counter cannot be negative")
			return
		}

		mc.State.Program = value
	case "RB":
		mc.State.Base = value
	default:
		log.Println("Invalid register")
		return
	}

	fmt.Printf("\033[1m%s:\033[0m %d\n", strings.ToUpper(args[0]), value)
}

// Parses the optional [addr|label] [count] arguments shared by the listing
// commands. A lone number that is not a label is a count at the PC.
func debugRange(
	dbg *debugger.Debugger,
	mc *machine.Machine,
	args []string,
	size int64,
	usage string,
) (int64, int64, bool) {
	addr := mc.State.Program

	if len(args) > 2 {
		log.Println(usage)
		return 0, 0, false
	}

	if len(args) == 1 && dbg.SymTable != nil {
		if labelAddr, ok := dbg.SymTable.Address(args[0]); ok {
			return labelAddr, size, true
		}
	}

	if len(args) == 1 {
		value, err := strconv.ParseInt(args[0], 10, 64)

		if err != nil || value < 0 {
			if found, ok := dbg.Lookup(args[0]); ok {
				return found, size, true
			}

			log.Println(usage)
			return 0, 0, false
		}

		return addr, value, true
	}

	if len(args) == 2 {
		found, ok := dbg.Lookup(args[0])

		if !ok {
			log.Printf("Unable to find '%s'\n", args[0])
			return 0, 0, false
		}

		value, err := strconv.ParseInt(args[1], 10, 64)

		if err != nil || value < 0 {
			log.Println(usage)
			return 0, 0, false
		}

		return found, value, true
	}

	return addr, size, true
}

func debugSource(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	addr, size, ok := debugRange(dbg, mc, args, 3, "source [addr|label] [#]")

	if ok {
		dbg.PrintSource(addr, int(size))
	}
}

func debugDisasm(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	addr, size, ok := debugRange(dbg, mc, args, 5, "disasm [addr|label] [#]")

	if ok {
		dbg.PrintDisasm(mc, addr, int(size))
	}
}

func debugMemory(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	addr, size, ok := debugRange(dbg, mc, args, 1, "memory [addr|label] [#]")

	if ok {
		dbg.PrintMem(&mc.State, addr, size)
	}
}

func debugLabels(dbg *debugger.Debugger, args []string) {
	if len(args) > 0 {
		fmt.Println("labels")
		return
	}

	if dbg.SymTable == nil {
		fmt.Println("No symbol table loaded")
		return
	}

	keys := make([]int64, 0, len(dbg.SymTable.Labels))
	for addr := range dbg.SymTable.Labels {
		keys = append(keys, addr)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	for _, addr := range keys {
		fmt.Printf("\033[1m[%6d]\033[0m %s\n", addr, dbg.SymTable.Labels[addr])
	}
}

func debugJump(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	if len(args) != 1 {
		fmt.Println("jump [addr|label]")
		return
	}

	addr, ok := dbg.Lookup(args[0])

	if !ok {
		fmt.Printf("Unable to find '%s'\n", args[0])
		return
	}

	mc.State.Program = addr

	fmt.Printf("\033[1mPC:\033[0m %d%s\n", addr, labelSuffix(dbg, addr))
}

func debugSet(dbg *debugger.Debugger, mc *machine.Machine, args []string) {
	if len(args) != 2 {
		log.Println("set [addr|label] [value]")
		return
	}

	addr, ok := dbg.Lookup(args[0])

	if !ok {
		log.Printf("Unable to find '%s'\n", args[0])
		return
	}

	value, err := encoding.DecodeLiteral(args[1])

	if err != nil {
		log.Println(err)
		return
	}

	if err := mc.State.Memory.Store(addr, value); err != nil {
		log.Println(err)
		return
	}

	dbg.PrintMem(&mc.State, addr, 1)
}

func indexFormat(count int, rest string) string {
	digits := math.Floor(math.Log10(float64(count + 1)))
	return fmt.Sprintf("#%%0%dd: ", int64(digits)+1) + rest
}

func parseIndex(args []string, count int, usage string) (int, bool) {
	if len(args) != 1 {
		log.Println(usage)
		return 0, false
	}

	i, err := strconv.Atoi(args[0])

	if err != nil {
		log.Println(err)
		return 0, false
	}

	if i < 0 || i >= count {
		log.Println("Invalid index")
		return 0, false
	}

	return i, true
}

func labelSuffix(dbg *debugger.Debugger, addr int64) string {
	if dbg.SymTable != nil {
		if label, ok := dbg.SymTable.Labels[addr]; ok {
			return fmt.Sprintf(" \033[1;30m(%s)\033[0m", label)
		}
	}

	return ""
}

// debugREPL reads commands until one resumes execution. It returns errQuit
// when the session should end.
func debugREPL(dbg *debugger.Debugger, mc *machine.Machine, input *bufio.Reader) error {
	exitRawTerm()
	defer enterRawTerm()

	for {
		fmt.Print("\033[1;30m(dbg)\033[0m ")

		line, err := input.ReadString('\n')

		if err != nil && (err != io.EOF || line == "") {
			fmt.Println()
			return errQuit
		}

		args := strings.Fields(line)

		if len(args) == 0 {
			if len(lastcmd) == 0 {
				continue
			}
			args = lastcmd
		} else {
			lastcmd = args
		}

		cmd := args[0]
		args = args[1:]

		switch cmd {
		case "b", "bp", "break", "breakpoint":
			debugBreak(dbg, args)

		case "w", "wp", "watch", "watchpoint":
			debugWatch(dbg, args)

		case "r", "reg", "register", "registers":
			debugReg(mc, args)

		case "s", "src", "source":
			debugSource(dbg, mc, args)

		case "d", "dis", "disasm":
			debugDisasm(dbg, mc, args)

		case "l", "label", "labels":
			debugLabels(dbg, args)

		case "j", "jmp", "jump":
			debugJump(dbg, mc, args)

		case "m", "mem", "memory":
			debugMemory(dbg, mc, args)

		case "set":
			debugSet(dbg, mc, args)

		case "c", "continue":
			dbg.Break = false
			return nil

		case "n", "next":
			dbg.Break = true
			return nil

		case "q", "quit", "exit":
			return errQuit

		case "clear":
			fmt.Print("\033[H\033[2J")

		case "reset":
			mc.Reset()
			fmt.Println("Machine reset")

		default:
			fmt.Printf("error: '%s' is not a valid command\n", cmd)
		}
	}
}

func handleBreak(input *bufio.Reader) func(*debugger.Debugger, *machine.Machine) error {
	return func(dbg *debugger.Debugger, mc *machine.Machine) error {
		if !dbg.Break {
			fmt.Println()
			fmt.Println("Program stopped")
			dbg.PrintDisasm(mc, mc.State.Program, 1)
		}

		return debugREPL(dbg, mc, input)
	}
}

func handleRead(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Printf("Read watchpoint [%d]%s\n", addr, labelSuffix(dbg, addr))
	dbg.PrintMem(&mc.State, addr, 1)
}

func handleWrite(addr int64, dbg *debugger.Debugger, mc *machine.Machine) {
	fmt.Println()
	fmt.Printf("Write watchpoint [%d]%s\n", addr, labelSuffix(dbg, addr))
	dbg.PrintMem(&mc.State, addr, 1)
}
