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

package pipeline

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

var ErrClosedPipe = errors.New("pipe closed")

// Pipe is an unbounded word queue linking one machine's output to another's
// input. Writes never block. Reads block until a word arrives, the pipe is
// closed and drained, or the context is done. A pipe supports one reader.
type Pipe struct {
	ctx    context.Context
	mu     sync.Mutex
	words  []int64
	closed bool
	ready  chan struct{}
}

func NewPipe(ctx context.Context) *Pipe {
	return &Pipe{ctx: ctx, ready: make(chan struct{}, 1)}
}

func (p *Pipe) WriteWord(value int64) error {
	p.mu.Lock()

	if p.closed {
		p.mu.Unlock()
		return ErrClosedPipe
	}

	p.words = append(p.words, value)
	p.mu.Unlock()

	p.signal()

	return nil
}

func (p *Pipe) ReadWord() (int64, error) {
	for {
		p.mu.Lock()

		if len(p.words) > 0 {
			word := p.words[0]
			p.words = p.words[1:]
			p.mu.Unlock()
			return word, nil
		}

		closed := p.closed
		p.mu.Unlock()

		if closed {
			return 0, ErrClosedPipe
		}

		select {
		case <-p.ready:
		case <-p.ctx.Done():
			return 0, p.ctx.Err()
		}
	}
}

// Close marks the end of the stream. Words already queued remain readable.
func (p *Pipe) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.signal()
}

// Drain removes and returns every queued word without blocking.
func (p *Pipe) Drain() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	words := p.words
	p.words = nil

	return words
}

func (p *Pipe) signal() {
	select {
	case p.ready <- struct{}{}:
	default:
	}
}
