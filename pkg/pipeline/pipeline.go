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

// Package pipeline runs chains of Intcode machines, each on its own
// goroutine, with every machine's output feeding the next one's input.
package pipeline

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/lassandro/intcode/pkg/machine"
)

// Stage is one machine in a chain. Seed words are queued on its input ahead
// of anything produced upstream.
type Stage struct {
	Machine *machine.Machine
	Seed    []int64
}

// Forks builds one stage per seed, each a fresh fork of mc.
func Forks(mc *machine.Machine, seeds ...int64) []Stage {
	stages := make([]Stage, len(seeds))

	for i, seed := range seeds {
		stages[i] = Stage{Machine: mc.Fork(), Seed: []int64{seed}}
	}

	return stages
}

// Run connects the stages in order and runs them until every machine halts.
// The input words follow the first stage's seed. With loop set, the last
// stage's outputs are also fed back into the first stage. Run returns every
// word the last stage emitted.
//
// A machine that reads from an upstream that has halted fails with
// ErrClosedPipe. The first failure cancels the remaining stages.
func Run(
	ctx context.Context,
	stages []Stage,
	input []int64,
	loop bool,
) ([]int64, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline has no stages")
	}

	g, gctx := errgroup.WithContext(ctx)

	pipes := make([]*Pipe, len(stages))

	for i, stage := range stages {
		pipes[i] = NewPipe(gctx)

		for _, word := range stage.Seed {
			pipes[i].WriteWord(word)
		}
	}

	for _, word := range input {
		pipes[0].WriteWord(word)
	}

	var result []int64

	for i, stage := range stages {
		i, mc := i, stage.Machine
		in := pipes[i]

		var next *Pipe

		if i+1 < len(stages) {
			next = pipes[i+1]
		} else if loop {
			next = pipes[0]
		}

		out := machine.Output(next)

		if i == len(stages)-1 {
			out = machine.OutputFunc(func(value int64) error {
				result = append(result, value)

				if next != nil {
					return next.WriteWord(value)
				}

				return nil
			})
		}

		g.Go(func() error {
			err := mc.Run(in, out)

			if next != nil {
				next.Close()
			}

			return errors.WithMessagef(err, "stage %d", i)
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	return result, nil
}
