// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package unpack defines unpack levels and the name filters that select
// which container entries and section entries a patch run touches.
//
// An unpack level is a dial per format layer: the higher the level, the
// deeper the patcher descends before treating content as an opaque
// blob. At RSB and below a container is only rewrapped; RSGP replaces
// whole sections; SECTION replaces a section's decompressed blob;
// ENCRYPTED and ENCODED replace individual entries byte for byte; and
// DECODED builds RTON entries from JSON sources.
package unpack

import (
	"fmt"
	"strings"
)

// Level selects how deeply a container is unpacked.
type Level int

const (
	Specify Level = iota
	SMF
	RSB
	RSGP
	Section
	Encrypted
	Encoded
	Decoded
)

var levelNames = [...]string{"SPECIFY", "SMF", "RSB", "RSGP", "SECTION", "ENCRYPTED", "ENCODED", "DECODED"}

func (l Level) String() string {
	if l < 0 || int(l) >= len(levelNames) {
		return fmt.Sprintf("level(%d)", int(l))
	}
	return levelNames[l]
}

// Valid reports whether l names a defined level above Specify.
func (l Level) Valid() bool {
	return l > Specify && l <= Decoded
}

// ParseLevel accepts a level name (case-insensitive) or its number.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) || s == fmt.Sprint(i) {
			return Level(i), nil
		}
	}
	return 0, fmt.Errorf("unknown unpack level %q", s)
}

// MarshalText renders the level by name.
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts what ParseLevel accepts, so configuration files
// may give a level by name or number.
func (l *Level) UnmarshalText(text []byte) error {
	parsed, err := ParseLevel(string(text))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Set and Type make *Level a pflag.Value.
func (l *Level) Set(s string) error { return l.UnmarshalText([]byte(s)) }

func (l *Level) Type() string { return "level" }

// Filter matches names by prefix and suffix. Matching is
// case-insensitive and treats backslashes as slashes. A name matches
// when it starts with any of StartsWith and ends with any of EndsWith.
// An ignored side, or an empty list, always matches.
type Filter struct {
	StartsWith       []string `yaml:"starts_with"`
	StartsWithIgnore bool     `yaml:"starts_with_ignore"`
	EndsWith         []string `yaml:"ends_with"`
	EndsWithIgnore   bool     `yaml:"ends_with_ignore"`
}

// Normalize returns the form of name that filters test: lower case with
// slash separators.
func Normalize(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, `\`, "/"))
}

// Match reports whether name passes the filter.
func (f Filter) Match(name string) bool {
	normalized := Normalize(name)
	return (f.StartsWithIgnore || anyAffix(normalized, f.StartsWith, strings.HasPrefix)) &&
		(f.EndsWithIgnore || anyAffix(normalized, f.EndsWith, strings.HasSuffix))
}

func anyAffix(name string, affixes []string, has func(s, affix string) bool) bool {
	if len(affixes) == 0 {
		return true
	}
	for _, affix := range affixes {
		if has(name, Normalize(affix)) {
			return true
		}
	}
	return false
}
