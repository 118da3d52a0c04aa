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
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/lassandro/intcode/pkg/encoding"
	"github.com/lassandro/intcode/pkg/machine"
)

// Profile holds run settings that would otherwise be given as flags.
//
//	ascii = true
//	input = [1]
//	text  = "NOT A J\n"
//
//	[patch]
//	1 = 12
//	2 = 2
type Profile struct {
	ASCII bool             `toml:"ascii"`
	Raw   bool             `toml:"raw"`
	Debug bool             `toml:"debug"`
	Input []int64          `toml:"input"`
	Text  string           `toml:"text"`
	Patch map[string]int64 `toml:"patch"`
	Chain []int64          `toml:"chain"`
	Loop  bool             `toml:"loop"`
}

func LoadProfile(filename string) (*Profile, error) {
	data, err := os.ReadFile(filename)

	if err != nil {
		return nil, errors.Wrap(err, "load profile")
	}

	var profile Profile

	if err := toml.Unmarshal(data, &profile); err != nil {
		return nil, errors.Wrapf(err, "parse profile %s", filename)
	}

	return &profile, nil
}

// Options converts the patch table into machine options, ordered by
// address.
func (profile *Profile) Options() ([]machine.Option, error) {
	addrs := make([]int64, 0, len(profile.Patch))
	values := make(map[int64]int64, len(profile.Patch))

	for key, value := range profile.Patch {
		addr, err := encoding.DecodeLiteral(strings.TrimSpace(key))

		if err != nil {
			return nil, errors.Wrapf(err, "patch address %q", key)
		}

		addrs = append(addrs, addr)
		values[addr] = value
	}

	sort.Slice(addrs, func(i, j int) bool { return addrs[i] < addrs[j] })

	opts := make([]machine.Option, 0, len(addrs))

	for _, addr := range addrs {
		opts = append(opts, machine.Patch(addr, values[addr]))
	}

	return opts, nil
}

// ParseWords parses a comma-separated word list such as "9,8,7,6,5".
func ParseWords(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	return encoding.DecodeProgram(strings.NewReader(s))
}

// ParsePatches parses addr=value pairs such as "1=12,2=2" into the profile.
func (profile *Profile) ParsePatches(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}

	if profile.Patch == nil {
		profile.Patch = make(map[string]int64)
	}

	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")

		if !ok {
			return errors.Errorf("patch %q: want addr=value", pair)
		}

		word, err := encoding.DecodeLiteral(strings.TrimSpace(value))

		if err != nil {
			return errors.Wrapf(err, "patch %q", pair)
		}

		profile.Patch[strings.TrimSpace(key)] = word
	}

	return nil
}
