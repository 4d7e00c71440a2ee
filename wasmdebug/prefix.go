// This file is part of Gopher2600.
//
// Gopher2600 is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Gopher2600 is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Gopher2600.  If not, see <https://www.gnu.org/licenses/>.

package wasmdebug

import "strings"

// ParsePrefixReplacement parses one `-p OLD=NEW` (or bare `-p OLD`, meaning
// "strip OLD") command line argument.
func ParsePrefixReplacement(spec string) (PrefixReplacement, error) {
	if spec == "" {
		return PrefixReplacement{}, Errorf(BadPrefixSpec, "empty prefix specification")
	}

	old, repl, found := strings.Cut(spec, "=")
	if !found {
		return PrefixReplacement{Old: old, New: ""}, nil
	}
	return PrefixReplacement{Old: old, New: repl}, nil
}

// ApplyPrefixReplacements rewrites every entry in sources in place,
// replacing the first matching Old prefix (in the order given) with its
// corresponding New. A source with no matching prefix is left unchanged.
func ApplyPrefixReplacements(sources []string, replacements []PrefixReplacement) {
	for i, src := range sources {
		for _, r := range replacements {
			if strings.HasPrefix(src, r.Old) {
				sources[i] = r.New + strings.TrimPrefix(src, r.Old)
				break
			}
		}
	}
}
