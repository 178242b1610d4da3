// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/rton"
)

const (
	jsonSuffix = ".json"
	rtonSuffix = ".rton"
)

// Encode builds an RTON file from every JSON file in a tree. The output
// drops the .json suffix and gains .rton when that leaves it without an
// extension, unless its base name starts with one of
// NoExtensionPrefixes. JSON files that already hold RTON are skipped.
type Encode struct {
	NoExtensionPrefixes []string
}

func (e Encode) Run(ctx context.Context, tree Tree) error {
	return tree.walk(ctx, func(in, out, _ string) error {
		if !hasSuffixFold(in, []string{jsonSuffix}) {
			return nil
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		if rton.IsRTON(data) {
			return nil
		}
		encoded, err := encodeJSON(data)
		if err != nil {
			return err
		}
		return tree.write(encodedName(out, e.NoExtensionPrefixes), encoded)
	})
}

// Encrypt seals every RTON file in a tree with the entry cipher:
// the output is the encrypted-entry marker followed by the encrypted
// file. Files with a selected extension that hold JSON are encoded to
// RTON instead.
type Encrypt struct {
	Extensions          []string
	NoExtensionPrefixes []string
	Cipher              *rijndael.CBC
}

func (e Encrypt) Run(ctx context.Context, tree Tree) error {
	if e.Cipher == nil {
		return errors.New("encrypting requires a cipher")
	}
	return tree.walk(ctx, func(in, out, _ string) error {
		if !hasSuffixFold(in, e.Extensions) {
			return nil
		}
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		if rton.IsRTON(data) {
			return tree.write(out, e.Cipher.SealEntry(data))
		}
		encoded, err := encodeJSON(data)
		if err != nil {
			return err
		}
		return tree.write(encodedName(out, e.NoExtensionPrefixes), encoded)
	})
}

// Decode renders every RTON file in a tree as JSON. A file is selected
// by one of Extensions or, for extensionless files, by a base name
// starting with one of NoExtensionPrefixes. Selected files that are not
// RTON are reported with a warning, except JSON files.
type Decode struct {
	Extensions          []string
	NoExtensionPrefixes []string
	// Repair ends truncated objects and arrays instead of failing.
	Repair bool
	Indent string
	// ShortNames replaces the input's extension with .json instead of
	// appending it.
	ShortNames bool
	// Cipher, when set, opens sealed files before decoding.
	Cipher *rijndael.CBC
}

func (d Decode) Run(ctx context.Context, tree Tree) error {
	return tree.walk(ctx, func(in, out, _ string) error {
		if !hasSuffixFold(in, d.Extensions) && !hasPrefixFold(filepath.Base(in), d.NoExtensionPrefixes) {
			return nil
		}
		isJSON := hasSuffixFold(in, []string{jsonSuffix})
		data, err := os.ReadFile(in)
		if err != nil {
			return err
		}
		if d.Cipher != nil && rijndael.IsSealed(data) {
			if data, err = d.Cipher.OpenEntry(data); err != nil {
				return err
			}
		}
		if !rton.IsRTON(data) {
			if !isJSON {
				tree.Run.Warning(in, "", "not an RTON file")
			}
			return nil
		}

		document, err := rton.Decode(data, rton.DecodeOptions{Repair: d.Repair})
		if err != nil {
			return err
		}
		for _, warning := range document.Warnings {
			tree.Run.Warning(in, "", warning.String())
		}
		text, err := rton.MarshalJSON(document.Root, d.Indent)
		if err != nil {
			return err
		}
		if d.ShortNames && !isJSON {
			out = strings.TrimSuffix(out, filepath.Ext(out))
		}
		return tree.write(out+jsonSuffix, text)
	})
}

func encodeJSON(data []byte) ([]byte, error) {
	root, err := rton.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return rton.Encode(root)
}

// encodedName is the output name of an RTON file built from the JSON
// file out.
func encodedName(out string, noExtensionPrefixes []string) string {
	if hasSuffixFold(out, []string{jsonSuffix}) {
		out = out[:len(out)-len(jsonSuffix)]
	}
	if filepath.Ext(out) == "" && !hasPrefixFold(filepath.Base(out), noExtensionPrefixes) {
		out += rtonSuffix
	}
	return out
}
