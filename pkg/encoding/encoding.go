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

package encoding

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseError reports a malformed token in a program file. Index is the
// zero-based position of the token in the comma-separated list.
type ParseError struct {
	Index int
	Token string
	Err   error
}

func (err *ParseError) Error() string {
	if err.Token == "" {
		return fmt.Sprintf("token %d: empty token", err.Index)
	}

	return fmt.Sprintf("token %d: invalid word %q: %v", err.Index, err.Token, err.Err)
}

func (err *ParseError) Unwrap() error {
	return err.Err
}

// Decodes a program image from comma-separated decimal words. Whitespace
// around each word, including a trailing newline, and a leading UTF-8 byte
// order mark are ignored.
func DecodeProgram(r io.Reader) ([]int64, error) {
	data, err := io.ReadAll(r)

	if err != nil {
		return nil, errors.Wrap(err, "read program")
	}

	tokens := strings.Split(strings.TrimPrefix(string(data), "\ufeff"), ",")
	program := make([]int64, 0, len(tokens))

	for i, token := range tokens {
		token = strings.TrimSpace(token)

		if token == "" {
			return nil, &ParseError{Index: i}
		}

		word, err := strconv.ParseInt(token, 10, 64)

		if err != nil {
			if numErr, ok := err.(*strconv.NumError); ok {
				err = numErr.Err
			}

			return nil, &ParseError{Index: i, Token: token, Err: err}
		}

		program = append(program, word)
	}

	return program, nil
}

// Encodes a program image in its normalised form: words joined by a single
// comma and terminated by a newline.
func EncodeProgram(w io.Writer, program []int64) error {
	bw := bufio.NewWriter(w)

	for i, word := range program {
		if i > 0 {
			bw.WriteByte(',')
		}

		bw.WriteString(strconv.FormatInt(word, 10))
	}

	bw.WriteByte('\n')

	return errors.Wrap(bw.Flush(), "write program")
}

// Decodes a hexidecimal string in the formats: 0x2A, x2A, -0x2A, -x2A
func DecodeHex(s string) (int64, error) {
	negative := strings.HasPrefix(s, "-")

	if negative {
		s = s[1:]
	}

	if i := strings.IndexAny(s, "xX"); i == 0 {
		s = "0" + s
	} else if i == -1 || i != 1 || s[0] != '0' {
		return 0, errors.New("Invalid hex string")
	}

	result, err := strconv.ParseInt(s, 0, 64)

	if err != nil {
		return 0, err
	}

	if negative {
		result = -result
	}

	return result, nil
}

// Decodes a base-10 string in the formats: #123, 123, -123
func DecodeInt(s string) (int64, error) {
	if i := strings.Index(s, "#"); i == 0 {
		s = s[1:]
	}

	return strconv.ParseInt(s, 10, 64)
}

// Decodes either a hexidecimal or a base-10 literal.
func DecodeLiteral(s string) (int64, error) {
	if strings.ContainsAny(s, "xX") {
		return DecodeHex(s)
	}

	return DecodeInt(s)
}
