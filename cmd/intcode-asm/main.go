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
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/lassandro/intcode/pkg/assembler"
	"github.com/lassandro/intcode/pkg/encoding"
)

var helpvar bool
var debugvar bool
var disasmvar bool
var outvar string

const usage = "intcode-asm [-debug] [-disasm] [-out outfile] filename"

func init() {
	log.SetFlags(0)
	log.SetOutput(os.Stderr)
}

func init() {
	flag.BoolVar(&helpvar, "help", false, "Displays command usage")
	flag.BoolVar(
		&debugvar, "debug", false,
		"Specifies whether to generate debugging information as a symbol "+
			"table. The table will use the output filename with extension "+
			"'"+assembler.SYMTABLE_EXT+"'",
	)
	flag.BoolVar(
		&disasmvar, "disasm", false,
		"Reads a comma-separated program and writes an assembly listing "+
			"instead of assembling",
	)
	flag.StringVar(
		&outvar, "out", "",
		"Specifies a precise name for the output file, "+
			"overriding the default means of determining it",
	)
	flag.Parse()
}

func openInput(args []string) (io.ReadSeeker, string, bool) {
	if stat, _ := os.Stdin.Stat(); stat.Mode()&os.ModeCharDevice == 0 {
		log.SetPrefix("\033[1m<stdin>:\033[0m")
		return os.Stdin, "", true
	}

	if len(args) != 1 {
		log.Println(usage)
		return nil, "", false
	}

	file, err := os.Open(args[0])

	if err != nil {
		log.Println(err)
		return nil, "", false
	}

	filename := filepath.Base(file.Name())

	if stat, err := file.Stat(); err != nil {
		log.Println(err)
		file.Close()
		return nil, "", false
	} else if stat.IsDir() {
		log.Printf("%s is not a valid Intcode file", filename)
		file.Close()
		return nil, "", false
	}

	log.SetPrefix(fmt.Sprintf("\033[1m%s:\033[0m", filename))

	return file, file.Name(), true
}

func disassemble(input io.Reader, infile string) int {
	program, err := encoding.DecodeProgram(input)

	if err != nil {
		log.Println(err)
		return 1
	}

	var symtable *assembler.SymTable

	if infile != "" {
		if table, err := assembler.LoadSymTable(
			assembler.SymTablePath(infile),
		); err == nil {
			symtable = table
		}
	}

	output := io.Writer(os.Stdout)

	if outvar != "" {
		file, err := os.Create(outvar)

		if err != nil {
			log.Println(err)
			return 1
		}

		defer file.Close()

		output = file
	}

	w := bufio.NewWriter(output)

	if err := assembler.Listing(program, symtable, w); err != nil {
		log.Println(err)
		return 1
	}

	if err := w.Flush(); err != nil {
		log.Println(err)
		return 1
	}

	return 0
}

func printError(input io.ReadSeeker, err error) {
	tokenErr, ok := err.(assembler.TokenError)

	if input == os.Stdin || !ok {
		log.Println(err)
		return
	}

	cursor := tokenErr.GetPosition()

	if _, err := input.Seek(cursor.LineByte, io.SeekStart); err != nil {
		log.Println(err)
		return
	}

	line, _ := bufio.NewReader(input).ReadString('\n')

	underlinefmt := fmt.Sprintf(
		"%% %ds%s",
		int(cursor.Byte-cursor.LineByte)+1,
		strings.Repeat("~", max(int(cursor.Size)-1, 0)),
	)

	log.Printf(
		"%s\n%s\n\033[31m%s\033[0m",
		err,
		strings.TrimRight(line, "\r\n"),
		fmt.Sprintf(underlinefmt, "^"),
	)
}

func intcode_asm() int {
	if helpvar {
		fmt.Println(usage)
		flag.PrintDefaults()
		return 0
	}

	input, infile, ok := openInput(flag.Args())

	if !ok {
		return 1
	}

	if file, ok := input.(*os.File); ok && file != os.Stdin {
		defer file.Close()
	}

	if disasmvar {
		return disassemble(input, infile)
	}

	if outvar == "" {
		if infile == "" {
			outvar = "out.int"
		} else {
			filename := filepath.Base(infile)
			outvar = strings.TrimSuffix(filename, filepath.Ext(filename)) + ".int"
		}
	}

	var symtable *assembler.SymTable

	if debugvar {
		symtable = assembler.NewSymTable("")

		if infile != "" {
			if source, err := filepath.Abs(infile); err == nil {
				symtable.Source = source
			} else {
				log.Println(err)
			}
		}
	}

	result, errs := assembler.AssembleIntcodeSource(input, symtable)

	if len(errs) > 0 {
		for _, err := range errs {
			printError(input, err)
		}

		return 1
	}

	{
		file, err := os.Create(outvar)

		if err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			return 1
		}

		if err := encoding.EncodeProgram(file, result); err != nil {
			log.Println("Error writing output file")
			log.Println(err)
			file.Close()
			return 1
		}

		file.Close()
	}

	if debugvar {
		file, err := os.Create(assembler.SymTablePath(outvar))

		if err != nil {
			log.Println("Error creating symbol table")
			log.Println(err)
			return 1
		}

		defer file.Close()

		if err := symtable.Encode(file); err != nil {
			log.Println("Error writing symbol table")
			log.Println(err)
			return 1
		}
	}

	return 0
}

func main() {
	os.Exit(intcode_asm())
}
