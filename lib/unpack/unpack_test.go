// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package unpack

import "testing"

func TestLevelString(t *testing.T) {
	tests := []struct {
		level Level
		want  string
	}{
		{Specify, "SPECIFY"},
		{RSGP, "RSGP"},
		{Decoded, "DECODED"},
		{Level(9), "level(9)"},
	}
	for _, tt := range tests {
		if got := tt.level.String(); got != tt.want {
			t.Errorf("Level(%d).String() = %q, want %q", int(tt.level), got, tt.want)
		}
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  Level
	}{
		{"section", Section},
		{"ENCODED", Encoded},
		{"3", RSGP},
		{"7", Decoded},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.input)
		if err != nil {
			t.Errorf("ParseLevel(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
	for _, input := range []string{"", "8", "deep"} {
		if _, err := ParseLevel(input); err == nil {
			t.Errorf("ParseLevel(%q) succeeded, want error", input)
		}
	}
}

func TestLevelValid(t *testing.T) {
	if Specify.Valid() {
		t.Error("Specify.Valid() = true, want false")
	}
	if !SMF.Valid() || !Decoded.Valid() {
		t.Error("SMF and Decoded should be valid")
	}
	if Level(8).Valid() {
		t.Error("Level(8).Valid() = true, want false")
	}
}

func TestFilterMatch(t *testing.T) {
	entries := Filter{StartsWith: []string{"packages/"}, EndsWith: []string{".rton"}}
	sections := Filter{StartsWith: []string{"packages", "worldpackages_"}, EndsWithIgnore: true}

	tests := []struct {
		name   string
		filter Filter
		input  string
		want   bool
	}{
		{"backslash entry", entries, `PACKAGES\LEVELS\A.RTON`, true},
		{"slash entry", entries, "packages/b.rton", true},
		{"wrong suffix", entries, `PACKAGES\A.PTX`, false},
		{"wrong prefix", entries, `IMAGES\A.RTON`, false},
		{"section prefix", sections, "WorldPackages_Egypt", true},
		{"section ignored suffix", sections, "Packages.bin", true},
		{"section other", sections, "AlwaysLoaded", false},
		{"ignored prefix", Filter{StartsWith: []string{"x"}, StartsWithIgnore: true, EndsWith: []string{".rton"}}, "a.rton", true},
		{"empty filter", Filter{}, "anything", true},
		{"mixed case affix", Filter{EndsWith: []string{".RTON"}}, "a.rton", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Match(tt.input); got != tt.want {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevelText(t *testing.T) {
	var level Level
	if err := level.UnmarshalText([]byte("encrypted")); err != nil || level != Encrypted {
		t.Errorf("UnmarshalText(encrypted) = %v, %v; want ENCRYPTED", level, err)
	}
	if err := level.Set("4"); err != nil || level != Section {
		t.Errorf("Set(4) = %v, %v; want SECTION", level, err)
	}
	if err := level.Set("bogus"); err == nil {
		t.Error("Set(bogus) succeeded, want error")
	}
	if level != Section {
		t.Errorf("failed Set changed the level to %v", level)
	}
	text, err := Decoded.MarshalText()
	if err != nil || string(text) != "DECODED" {
		t.Errorf("Decoded.MarshalText() = %q, %v; want DECODED", text, err)
	}
}
