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

// Adapter drives a machine cooperatively: Step runs until the machine needs
// input or halts, and Resume supplies the pending input word.
type Adapter struct {
	mc    *Machine
	out   Output
	state State
}

// Async returns a suspendable driver for mc. Outputs are delivered to out.
// The machine must not be driven by anything else while the adapter is in
// use.
func (mc *Machine) Async(out Output) *Adapter {
	return &Adapter{mc: mc, out: out, state: STATE_READY}
}

func (a *Adapter) State() State {
	return a.state
}

func (a *Adapter) Machine() *Machine {
	return a.mc
}

// Step runs the machine until it halts or reaches INPUT with no value
// available, and reports which of the two happened. Stepping a halted or
// waiting adapter makes no progress.
func (a *Adapter) Step() (State, error) {
	if a.state != STATE_READY {
		return a.state, nil
	}

	for {
		state, err := a.mc.Step(nil, a.out)

		if err != nil {
			return a.state, err
		}

		if state != STATE_READY {
			a.state = state
			return state, nil
		}
	}
}

// Resume completes the pending INPUT instruction with value. The machine is
// not run any further until the next Step.
func (a *Adapter) Resume(value int64) error {
	if a.state != STATE_AWAITING_INPUT {
		return &AdapterMisuseError{a.state}
	}

	pc := a.mc.State.Program

	_, err := a.mc.Step(Words(value), a.out)

	// A debugger error can follow a completed INPUT.
	if a.mc.State.Program != pc {
		a.state = STATE_READY
	}

	return err
}
