// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

// sectionNames are the top-level keys of a Config file. A file with
// none of them is read as a legacy options file.
var sectionNames = []string{"smf", "rsb", "rsgp", "encryption", "rton", "paths"}

// legacyOptions is the flat options.json of the older OBBEdit patcher.
// Keys that only switched its jobs on and off or tuned its JSON
// punctuation are accepted and have no effect.
type legacyOptions struct {
	SMFExtensions  []string      `yaml:"smfExtensions"`
	SMFUnpackLevel *unpack.Level `yaml:"smfUnpackLevel"`

	RSBExtensions  []string      `yaml:"rsbExtensions"`
	RSBUnpackLevel *unpack.Level `yaml:"rsbUnpackLevel"`

	// The rsgp* filter keys select container sections.
	RSGPStartsWith       []string `yaml:"rsgpStartsWith"`
	RSGPStartsWithIgnore *bool    `yaml:"rsgpStartsWithIgnore"`
	RSGPEndsWith         []string `yaml:"rsgpEndsWith"`
	RSGPEndsWithIgnore   *bool    `yaml:"rsgpEndsWithIgnore"`

	RSGPExtensions  []string      `yaml:"rsgpExtensions"`
	RSGPUnpackLevel *unpack.Level `yaml:"rsgpUnpackLevel"`

	// The unprefixed filter keys select section entries.
	StartsWith       []string `yaml:"startsWith"`
	StartsWithIgnore *bool    `yaml:"startsWithIgnore"`
	EndsWith         []string `yaml:"endsWith"`
	EndsWithIgnore   *bool    `yaml:"endsWithIgnore"`

	EncryptedExtensions []string `yaml:"encryptedExtensions"`
	EncryptionKey       *string  `yaml:"encryptionKey"`

	RTONExtensions   []string `yaml:"RTONExtensions"`
	RTONNoExtensions []string `yaml:"RTONNoExtensions"`
	RepairFiles      *bool    `yaml:"repairFiles"`

	// Indent is null for compact output, negative for a tab or the
	// number of spaces.
	Indent yaml.Node `yaml:"indent"`

	EncryptedUnpackLevel any `yaml:"encryptedUnpackLevel"`
	EncodedUnpackLevel   any `yaml:"encodedUnpackLevel"`
	Comma                any `yaml:"comma"`
	DoublePoint          any `yaml:"doublePoint"`
	EnsureASCII          any `yaml:"ensureAscii"`
	SortKeys             any `yaml:"sortKeys"`
	SortValues           any `yaml:"sortValues"`
}

// isLegacy reports whether a decoded top-level mapping is a legacy
// options file.
func isLegacy(keys map[string]any) bool {
	if len(keys) == 0 {
		return false
	}
	for _, name := range sectionNames {
		if _, ok := keys[name]; ok {
			return false
		}
	}
	return true
}

// apply merges the options that were present into c. Extension and
// filter lists are lower-cased.
func (o *legacyOptions) apply(c *Config) error {
	setList(&c.SMF.Extensions, o.SMFExtensions)
	setLevel(&c.SMF.UnpackLevel, o.SMFUnpackLevel)

	setList(&c.RSB.Extensions, o.RSBExtensions)
	setLevel(&c.RSB.UnpackLevel, o.RSBUnpackLevel)
	setList(&c.RSB.Sections.StartsWith, o.RSGPStartsWith)
	setBool(&c.RSB.Sections.StartsWithIgnore, o.RSGPStartsWithIgnore)
	setList(&c.RSB.Sections.EndsWith, o.RSGPEndsWith)
	setBool(&c.RSB.Sections.EndsWithIgnore, o.RSGPEndsWithIgnore)

	setList(&c.RSGP.Extensions, o.RSGPExtensions)
	setLevel(&c.RSGP.UnpackLevel, o.RSGPUnpackLevel)
	setList(&c.RSGP.Entries.StartsWith, o.StartsWith)
	setBool(&c.RSGP.Entries.StartsWithIgnore, o.StartsWithIgnore)
	setList(&c.RSGP.Entries.EndsWith, o.EndsWith)
	setBool(&c.RSGP.Entries.EndsWithIgnore, o.EndsWithIgnore)

	setList(&c.Encryption.Extensions, o.EncryptedExtensions)
	if o.EncryptionKey != nil {
		c.Encryption.Key = *o.EncryptionKey
		c.Encryption.KeyFile = ""
	}

	setList(&c.RTON.Extensions, o.RTONExtensions)
	setList(&c.RTON.NoExtensionPrefixes, o.RTONNoExtensions)
	setBool(&c.RTON.Repair, o.RepairFiles)

	if o.Indent.Kind != 0 {
		indent, err := legacyIndent(&o.Indent)
		if err != nil {
			return err
		}
		c.RTON.Indent = indent
	}
	return nil
}

func legacyIndent(node *yaml.Node) (string, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return "", nil
	}
	var spaces int
	if err := node.Decode(&spaces); err != nil {
		return "", fmt.Errorf("indent: want null or a number: %w", err)
	}
	if spaces < 0 {
		return "\t", nil
	}
	return strings.Repeat(" ", spaces), nil
}

func setList(dst *[]string, src []string) {
	if src == nil {
		return
	}
	list := make([]string, len(src))
	for i, s := range src {
		list[i] = strings.ToLower(s)
	}
	*dst = list
}

func setLevel(dst *unpack.Level, src *unpack.Level) {
	if src != nil {
		*dst = *src
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}
