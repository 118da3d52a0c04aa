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
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/debugger"
	"github.com/lassandro/intcode/pkg/machine"
	"github.com/lassandro/intcode/pkg/pipeline"
)

var helpvar bool
var debugvar bool
var asciivar bool
var rawvar bool
var loopvar bool
var inputvar string
var patchvar string
var chainvar string
var profilevar string

const usage = "intcode [-debug] [-ascii] [-raw] [-input 1,2,3] [-patch addr=value,...] " +
	"[-chain 4,3,2,1,0 [-loop]] [-profile file.toml] filename"

func init() {
	exe, _ := os.Executable()
	log.SetFlags(0)
	log.SetPrefix(fmt.Sprintf("%s: ", filepath.Base(exe)))
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(&debugvar, "debug", false, "Runs the machine in a debug CLI")
	flag.BoolVar(&asciivar, "ascii", false, "Exchanges input and output as ASCII text")
	flag.BoolVar(&rawvar, "raw", false, "Reads ASCII input from the terminal unbuffered")
	flag.BoolVar(&loopvar, "loop", false, "Feeds the last chain stage back into the first")
	flag.StringVar(&inputvar, "input", "", "Words queued ahead of standard input")
	flag.StringVar(&patchvar, "patch", "", "Overwrites words of the image before running")
	flag.StringVar(&chainvar, "chain", "", "Runs one copy of the program per seed word, chained output to input")
	flag.StringVar(&profilevar, "profile", "", "Reads run settings from a TOML file")
}

// Merges the profile with the command line. Flags given on the command line
// take precedence.
func settings() (*Profile, error) {
	profile := &Profile{}

	if profilevar != "" {
		loaded, err := LoadProfile(profilevar)

		if err != nil {
			return nil, err
		}

		profile = loaded
	}

	var err error

	flag.Visit(func(f *flag.Flag) {
		if err != nil {
			return
		}

		switch f.Name {
		case "debug":
			profile.Debug = debugvar
		case "ascii":
			profile.ASCII = asciivar
		case "raw":
			profile.Raw = rawvar
		case "loop":
			profile.Loop = loopvar
		case "input":
			profile.Input, err = ParseWords(inputvar)
		case "chain":
			profile.Chain, err = ParseWords(chainvar)
		case "patch":
			err = profile.ParsePatches(patchvar)
		}
	})

	return profile, err
}

// Builds the machine input: queued words first, then standard input.
func newInput(profile *Profile, stdin *bufio.Reader) machine.Input {
	queue := machine.Words(profile.Input...)

	var source machine.Input

	if profile.ASCII {
		queue.PushString(profile.Text)
		source = machine.NewASCIIInput(stdin)
	} else {
		source = machine.NewTextInput(stdin)
	}

	return machine.InputFunc(func() (int64, error) {
		if queue.Len() > 0 {
			return queue.ReadWord()
		}

		return source.ReadWord()
	})
}

func newOutput(profile *Profile) machine.Output {
	if profile.ASCII {
		return machine.NewASCIIOutput(os.Stdout)
	}

	return machine.NewTextOutput(os.Stdout)
}

func newDebugger(filename string, stdin *bufio.Reader) (*debugger.Debugger, func()) {
	dbg := &debugger.Debugger{
		HandleBreak: handleBreak(stdin),
		HandleRead:  handleRead,
		HandleWrite: handleWrite,
	}

	closer := func() {}

	if symtable, err := assembler.LoadSymTable(
		assembler.SymTablePath(filename),
	); err == nil {
		dbg.SymTable = symtable
	} else {
		log.Println("Error loading symbol file")
		log.Println(err)
	}

	if dbg.SymTable != nil && dbg.SymTable.Source != "" {
		if file, err := os.Open(dbg.SymTable.Source); err == nil {
			dbg.Source = file
			closer = func() { file.Close() }
		} else {
			log.Println("Error loading source file")
			log.Println(err)
		}
	}

	return dbg, closer
}

func runChain(mc *machine.Machine, profile *Profile) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	stages := pipeline.Forks(mc, profile.Chain...)

	result, err := pipeline.Run(ctx, stages, profile.Input, profile.Loop)

	out := newOutput(profile)

	for _, word := range result {
		if err := out.WriteWord(word); err != nil {
			log.Println(err)
			return 1
		}
	}

	if err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func intcode() int {
	flag.Parse()

	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	args := flag.Args()

	if len(args) != 1 {
		log.Println(usage)
		return 1
	}

	profile, err := settings()

	if err != nil {
		log.Println(err)
		return 1
	}

	opts, err := profile.Options()

	if err != nil {
		log.Println(err)
		return 1
	}

	mc, err := machine.LoadFile(args[0], opts...)

	if err != nil {
		log.Println(err)
		return 1
	}

	if len(profile.Chain) > 0 {
		if profile.Debug {
			log.Println("-debug cannot be combined with -chain")
			return 1
		}

		return runChain(mc, profile)
	}

	stdin := bufio.NewReader(os.Stdin)

	if profile.Debug {
		dbg, closer := newDebugger(args[0], stdin)
		defer closer()

		mc.Debugger = dbg

		c := make(chan os.Signal, 1)
		defer signal.Stop(c)

		signal.Notify(c, os.Interrupt)
		go func() {
			for range c {
				fmt.Println()
				dbg.Break = true
			}
		}()
	}

	rawTerm = profile.Raw && profile.ASCII && isTerminal(os.Stdin)

	if err := enterRawTerm(); err != nil {
		log.Println(err)
		return 1
	}

	defer exitRawTerm()

	if dbg, ok := mc.Debugger.(*debugger.Debugger); ok {
		if err := debugREPL(dbg, mc, stdin); err != nil {
			return 0
		}
	}

	err = mc.Run(newInput(profile, stdin), newOutput(profile))

	if errors.Is(err, errQuit) {
		return 0
	}

	if err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func main() {
	os.Exit(intcode())
}
