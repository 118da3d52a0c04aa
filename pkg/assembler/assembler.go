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
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
)

var opcodes = []machine.Opcode{
	machine.OP_ADD,
	machine.OP_MUL,
	machine.OP_IN,
	machine.OP_OUT,
	machine.OP_JNZ,
	machine.OP_JZ,
	machine.OP_LT,
	machine.OP_EQ,
	machine.OP_ARB,
	machine.OP_HALT,
}

func parseDirective(ident string) DirectiveType {
	if strings.EqualFold(ident, ".FILL") {
		return DIRECTIVE_FILL
	} else if strings.EqualFold(ident, ".BLKW") {
		return DIRECTIVE_BLKW
	} else if strings.EqualFold(ident, ".STRINGZ") {
		return DIRECTIVE_STRINGZ
	} else if strings.EqualFold(ident, ".END") {
		return DIRECTIVE_END
	}

	return DIRECTIVE_INVALID
}

func parseInstruction(ident string) (machine.Opcode, bool) {
	for _, op := range opcodes {
		if strings.EqualFold(ident, op.String()) {
			return op, true
		}
	}

	return 0, false
}

// Index of the parameter an opcode writes through, or -1.
func writeParam(op machine.Opcode) int {
	switch op {
	case machine.OP_ADD, machine.OP_MUL, machine.OP_LT, machine.OP_EQ:
		return 2
	case machine.OP_IN:
		return 0
	}

	return -1
}

func isHexLiteral(s string) bool {
	if len(s) < 2 || (s[0] != 'x' && s[0] != 'X') {
		return false
	}

	_, err := encoding.DecodeHex(s)

	return err == nil
}

func isIdentStart(char byte) bool {
	return char == '_' || unicode.IsLetter(rune(char))
}

// Splits one source line into tokens. Operand prefixes are stripped from
// the token value and recorded as its addressing mode.
func tokenize(line string, cursor Cursor) (tokens []Token, errs []error) {
	var builder strings.Builder
	var tokenType = TOKEN_NONE
	var tokenStart int
	var escaped bool

	flush := func() {
		if builder.Len() > 0 {
			token := Token{
				Type: tokenType,
				Mode: machine.MODE_POSITION,
				Position: Cursor{
					Line:     cursor.Line,
					Column:   tokenStart,
					Byte:     cursor.LineByte + int64(tokenStart-1),
					Size:     int64(builder.Len()),
					LineByte: cursor.LineByte,
				},
				Value: builder.String(),
			}

			if token.Type == TOKEN_LITERAL || token.Type == TOKEN_IDENT {
				switch token.Value[0] {
				case PREFIX_IMMEDIATE:
					token.Mode = machine.MODE_IMMEDIATE
					token.Value = token.Value[1:]
				case PREFIX_RELATIVE:
					token.Mode = machine.MODE_RELATIVE
					token.Value = token.Value[1:]
				}

				if token.Value == "" {
					errs = append(errs, &InvalidLiteralError{token.Position})
				} else if isHexLiteral(token.Value) {
					token.Type = TOKEN_LITERAL
				} else if isIdentStart(token.Value[0]) {
					token.Type = TOKEN_IDENT
				}
			}

			tokens = append(tokens, token)
		}

		builder.Reset()
		tokenType = TOKEN_NONE
	}

	start := func(column int, t TokenType) {
		tokenStart = column
		tokenType = t
	}

scan:
	for i, char := range line {
		cursor.Column = i + 1

		if tokenType == TOKEN_STRING {
			builder.WriteRune(char)

			if escaped {
				escaped = false
			} else if char == '\\' {
				escaped = true
			} else if char == '"' {
				flush()
			}

			continue
		}

		switch {
		// Whitespace and operand separator
		case unicode.IsSpace(char), char == ',':
			flush()

		// Comments
		case char == ';':
			flush()
			break scan

		// Label terminator
		case char == ':':
			if tokenType == TOKEN_IDENT && len(tokens) == 0 {
				flush()
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// String Literal
		case char == '"':
			if tokenType == TOKEN_NONE {
				start(cursor.Column, TOKEN_STRING)
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Assembler Directives
		case char == '.':
			if tokenType == TOKEN_NONE {
				start(cursor.Column, TOKEN_DIRECTIVE)
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Addressing mode prefixes (i.e. #42, ~-3, #label)
		case char == PREFIX_IMMEDIATE, char == PREFIX_RELATIVE:
			if tokenType == TOKEN_NONE {
				start(cursor.Column, TOKEN_LITERAL)
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Sign
		case char == '-':
			prefix := builder.String()
			prefixed := prefix == string(PREFIX_IMMEDIATE) ||
				prefix == string(PREFIX_RELATIVE)

			if tokenType == TOKEN_NONE {
				start(cursor.Column, TOKEN_LITERAL)
				builder.WriteRune(char)
			} else if prefixed {
				builder.WriteRune(char)
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}

		// Numeric Literal
		case unicode.IsDigit(char):
			if tokenType == TOKEN_NONE {
				start(cursor.Column, TOKEN_LITERAL)
			}

			builder.WriteRune(char)

		// Identifier
		case char == '_', unicode.IsLetter(char):
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
				continue
			}

			if tokenType == TOKEN_NONE {
				start(cursor.Column, TOKEN_IDENT)
			}

			builder.WriteRune(char)

		default:
			if char > unicode.MaxASCII {
				errs = append(errs, &OversizedCharacterError{cursor})
			} else {
				errs = append(errs, &UnexpectedCharacterError{cursor, char})
			}
		}
	}

	if tokenType == TOKEN_STRING {
		cursor.Column = tokenStart
		errs = append(errs, &InvalidStringError{cursor})
		return tokens, errs
	}

	flush()

	return tokens, errs
}

// AssembleIntcodeSource translates assembly source into a program image.
// Every error found is returned; the image is only meaningful when errs is
// empty. When symtable is non-nil it receives source offsets and labels.
func AssembleIntcodeSource(
	input io.Reader,
	symtable *SymTable,
) (result []int64, errs []error) {
	type LabelRef struct {
		Label    string
		Addr     int64
		Position Cursor
	}

	var labels = make(map[string]int64)
	var labelRefs []LabelRef

	var program int64 = 0

	var scanner = bufio.NewScanner(input)
	var cursor = Cursor{Line: 1}

	emit := func(addr int64, value int64) {
		if size := addr + 1; size > int64(len(result)) {
			result = append(result, make([]int64, size-int64(len(result)))...)
		}

		result[addr] = value
	}

	nextLine := func() {
		cursor.Line++
		cursor.Byte += int64(len(scanner.Text()) + 1)
		cursor.LineByte = cursor.Byte
	}

	result = make([]int64, 0)
	errs = make([]error, 0)

lines:
	for ; scanner.Scan(); nextLine() {
		line := scanner.Text()
		cursor.Size = int64(len(line))

		tokens, lineErrs := tokenize(line, cursor)

		if len(lineErrs) > 0 {
			errs = append(errs, lineErrs...)
			continue
		}

		if len(tokens) == 0 {
			continue
		}

		if tokens[0].Type == TOKEN_IDENT {
			if _, ok := parseInstruction(tokens[0].Value); !ok {
				label := tokens[0]
				tokens = tokens[1:]

				if label.Mode != machine.MODE_POSITION {
					errs = append(errs, &InvalidModeError{label.Position, label.Mode})
				} else if _, exists := labels[label.Value]; exists {
					errs = append(
						errs, &RedeclaredLabelError{label.Position, label.Value},
					)
				} else {
					labels[label.Value] = program
				}
			}
		}

		// No need to assemble label-only statements
		if len(tokens) == 0 {
			continue
		}

		keyword := tokens[0]
		operands := tokens[1:]

		var directive DirectiveType
		var op machine.Opcode
		var ok bool

		switch keyword.Type {
		case TOKEN_DIRECTIVE:
			directive = parseDirective(keyword.Value)
			ok = directive != DIRECTIVE_INVALID
		case TOKEN_IDENT:
			op, ok = parseInstruction(keyword.Value)
		}

		if !ok {
			errs = append(
				errs, &UnknownIdentifierError{keyword.Position, keyword.Value},
			)

			continue
		}

		if directive == DIRECTIVE_END {
			if count := len(operands); count != 0 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 0, count},
				)
			}

			break lines
		}

		if symtable != nil {
			symtable.Symbols[program] = cursor.LineByte
		}

		switch directive {
		// .FILL value|label
		case DIRECTIVE_FILL:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			operand := operands[0]

			if operand.Mode != machine.MODE_POSITION {
				errs = append(
					errs, &InvalidModeError{operand.Position, operand.Mode},
				)

				break
			}

			switch operand.Type {
			case TOKEN_LITERAL:
				literal, err := encoding.DecodeLiteral(operand.Value)

				if err != nil {
					errs = append(errs, &InvalidLiteralError{operand.Position})
				}

				emit(program, literal)
			case TOKEN_IDENT:
				emit(program, 0)

				labelRefs = append(
					labelRefs,
					LabelRef{operand.Value, program, operand.Position},
				)
			default:
				errs = append(
					errs,
					&InvalidOperandError{
						operand.Position,
						[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
						operand.Type,
					},
				)
			}

			program++

		// .BLKW count
		case DIRECTIVE_BLKW:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			operand := operands[0]

			if operand.Type != TOKEN_LITERAL || operand.Mode != machine.MODE_POSITION {
				errs = append(
					errs,
					&InvalidOperandError{
						operand.Position,
						[]TokenType{TOKEN_LITERAL},
						operand.Type,
					},
				)

				break
			}

			literal, err := encoding.DecodeLiteral(operand.Value)

			if err != nil || literal < 0 || literal > machine.MEMSPACE_LIMIT {
				errs = append(errs, &InvalidLiteralError{operand.Position})
				break
			}

			program += literal

		// .STRINGZ "..."
		case DIRECTIVE_STRINGZ:
			if count := len(operands); count != 1 {
				errs = append(
					errs, &InvalidNumArgumentsError{keyword.Position, 1, count},
				)

				break
			}

			if operands[0].Type != TOKEN_STRING {
				errs = append(
					errs,
					&InvalidOperandError{
						operands[0].Position,
						[]TokenType{TOKEN_STRING},
						operands[0].Type,
					},
				)

				break
			}

			s, err := strconv.Unquote(operands[0].Value)

			if err != nil {
				errs = append(errs, &InvalidStringError{operands[0].Position})
				break
			}

			for i := 0; i < len(s); i++ {
				emit(program, int64(s[i]))
				program++
			}

			emit(program, 0)
			program++
		}

		if directive == DIRECTIVE_INVALID {
			size := op.Size()

			if count := len(operands); int64(count) != size-1 {
				errs = append(
					errs,
					&InvalidNumArgumentsError{keyword.Position, int(size - 1), count},
				)

				continue
			}

			word := int64(op)
			scale := int64(100)

			for i, operand := range operands {
				param := program + 1 + int64(i)

				if i == writeParam(op) && operand.Mode == machine.MODE_IMMEDIATE {
					errs = append(
						errs, &InvalidModeError{operand.Position, operand.Mode},
					)
				}

				switch operand.Type {
				case TOKEN_LITERAL:
					literal, err := encoding.DecodeLiteral(operand.Value)

					if err != nil {
						errs = append(errs, &InvalidLiteralError{operand.Position})
					}

					emit(param, literal)
				case TOKEN_IDENT:
					emit(param, 0)

					labelRefs = append(
						labelRefs,
						LabelRef{operand.Value, param, operand.Position},
					)
				default:
					errs = append(
						errs,
						&InvalidOperandError{
							operand.Position,
							[]TokenType{TOKEN_LITERAL, TOKEN_IDENT},
							operand.Type,
						},
					)
				}

				word += int64(operand.Mode) * scale
				scale *= 10
			}

			emit(program, word)
			program += size
		}

		if program > machine.MEMSPACE_LIMIT {
			errs = append(errs, &OversizedBinaryError{})
			return
		}
	}

	if err := scanner.Err(); err != nil {
		errs = append(errs, err)
	}

	// Reserved space at the end of the image
	if program > int64(len(result)) {
		result = append(result, make([]int64, program-int64(len(result)))...)
	}

	// Label
	// - Resolve label references
	// - Add labels to symbol table
	for _, ref := range labelRefs {
		addr, exists := labels[ref.Label]

		if !exists {
			errs = append(errs, &UnknownLabelError{ref.Position, ref.Label})
			continue
		}

		result[ref.Addr] = addr
	}

	if symtable != nil {
		for label, addr := range labels {
			symtable.Labels[addr] = label
		}
	}

	return
}
