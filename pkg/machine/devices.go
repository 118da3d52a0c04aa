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
	"bufio"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

var ErrInputExhausted = errors.New("input exhausted")

// Input supplies words to INPUT instructions.
type Input interface {
	ReadWord() (int64, error)
}

// Output consumes words emitted by OUTPUT instructions.
type Output interface {
	WriteWord(value int64) error
}

type InputFunc func() (int64, error)

func (f InputFunc) ReadWord() (int64, error) {
	return f()
}

type OutputFunc func(value int64) error

func (f OutputFunc) WriteWord(value int64) error {
	return f(value)
}

// Discard drops every output word.
var Discard Output = OutputFunc(func(int64) error { return nil })

// WordQueue is a FIFO of input words.
type WordQueue struct {
	words []int64
}

func Words(words ...int64) *WordQueue {
	return &WordQueue{words: words}
}

// ASCII queues one word per byte of s.
func ASCII(s string) *WordQueue {
	q := &WordQueue{words: make([]int64, 0, len(s))}
	q.PushString(s)
	return q
}

func (q *WordQueue) ReadWord() (int64, error) {
	if len(q.words) == 0 {
		return 0, ErrInputExhausted
	}

	word := q.words[0]
	q.words = q.words[1:]

	return word, nil
}

func (q *WordQueue) Push(words ...int64) {
	q.words = append(q.words, words...)
}

func (q *WordQueue) PushString(s string) {
	for i := 0; i < len(s); i++ {
		q.words = append(q.words, int64(s[i]))
	}
}

func (q *WordQueue) Len() int {
	return len(q.words)
}

// Collector records every output word.
type Collector struct {
	Words []int64
}

func (c *Collector) WriteWord(value int64) error {
	c.Words = append(c.Words, value)
	return nil
}

func (c *Collector) Last() (int64, bool) {
	if len(c.Words) == 0 {
		return 0, false
	}

	return c.Words[len(c.Words)-1], true
}

// String renders the collected words as ASCII text. Words outside the ASCII
// range are rendered in decimal on a line of their own.
func (c *Collector) String() string {
	var builder strings.Builder

	for _, word := range c.Words {
		writeASCII(&builder, word)
	}

	return builder.String()
}

func writeASCII(w io.Writer, word int64) error {
	var err error

	if word >= 0 && word <= unicode.MaxASCII {
		_, err = w.Write([]byte{byte(word)})
	} else {
		_, err = io.WriteString(w, strconv.FormatInt(word, 10)+"\n")
	}

	return err
}

type textInput struct {
	scanner *bufio.Scanner
}

// NewTextInput reads decimal words separated by whitespace or commas.
func NewTextInput(r io.Reader) Input {
	scanner := bufio.NewScanner(r)
	scanner.Split(scanWords)
	return &textInput{scanner}
}

func (in *textInput) ReadWord() (int64, error) {
	if !in.scanner.Scan() {
		if err := in.scanner.Err(); err != nil {
			return 0, errors.Wrap(err, "read input")
		}

		return 0, ErrInputExhausted
	}

	word, err := strconv.ParseInt(in.scanner.Text(), 10, 64)

	return word, errors.Wrap(err, "read input")
}

func scanWords(data []byte, atEOF bool) (int, []byte, error) {
	isSep := func(b byte) bool {
		return b == ',' || unicode.IsSpace(rune(b))
	}

	start := 0

	for start < len(data) && isSep(data[start]) {
		start++
	}

	for i := start; i < len(data); i++ {
		if isSep(data[i]) {
			return i + 1, data[start:i], nil
		}
	}

	if atEOF && len(data) > start {
		return len(data), data[start:], nil
	}

	return start, nil, nil
}

type textOutput struct {
	w io.Writer
}

// NewTextOutput writes each word in decimal on its own line.
func NewTextOutput(w io.Writer) Output {
	return &textOutput{w}
}

func (out *textOutput) WriteWord(value int64) error {
	_, err := io.WriteString(out.w, strconv.FormatInt(value, 10)+"\n")
	return errors.Wrap(err, "write output")
}

type asciiInput struct {
	r io.ByteReader
}

// NewASCIIInput supplies one word per byte read from r.
func NewASCIIInput(r io.Reader) Input {
	br, ok := r.(io.ByteReader)

	if !ok {
		br = bufio.NewReader(r)
	}

	return &asciiInput{br}
}

func (in *asciiInput) ReadWord() (int64, error) {
	b, err := in.r.ReadByte()

	if err == io.EOF {
		return 0, ErrInputExhausted
	} else if err != nil {
		return 0, errors.Wrap(err, "read input")
	}

	return int64(b), nil
}

type asciiOutput struct {
	w io.Writer
}

// NewASCIIOutput writes ASCII words as characters and anything else in
// decimal on its own line.
func NewASCIIOutput(w io.Writer) Output {
	return &asciiOutput{w}
}

func (out *asciiOutput) WriteWord(value int64) error {
	return errors.Wrap(writeASCII(out.w, value), "write output")
}
