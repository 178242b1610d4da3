// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"

	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

// Container layer names.
const (
	LayerSMF  = "smf"
	LayerRSB  = "rsb"
	LayerRSGP = "rsgp"
)

// Layers lists the container layers from the outermost in.
var Layers = []string{LayerSMF, LayerRSB, LayerRSGP}

// Layer is everything a patch run needs to know about one container
// layer.
type Layer struct {
	Name  string
	Level unpack.Level
	// Extensions selects input files; Exclude removes files that match
	// it again.
	Extensions []string
	Exclude    []string
	Sections   unpack.Filter
	Entries    unpack.Filter
}

// Layer resolves the settings of the named layer. The SMF layer packs
// plain containers, so it selects files by the RSB extensions and
// excludes those already carrying an SMF extension.
func (c *Config) Layer(name string) (Layer, error) {
	switch name {
	case LayerSMF:
		return Layer{
			Name:       name,
			Level:      c.SMF.UnpackLevel,
			Extensions: c.RSB.Extensions,
			Exclude:    c.SMF.Extensions,
		}, nil
	case LayerRSB:
		return Layer{
			Name:       name,
			Level:      c.RSB.UnpackLevel,
			Extensions: c.RSB.Extensions,
			Sections:   c.RSB.Sections,
		}, nil
	case LayerRSGP:
		return Layer{
			Name:       name,
			Level:      c.RSGP.UnpackLevel,
			Extensions: c.RSGP.Extensions,
			Sections:   c.RSB.Sections,
			Entries:    c.RSGP.Entries,
		}, nil
	}
	return Layer{}, fmt.Errorf("unknown layer %q (want one of %v)", name, Layers)
}

// WithLevel returns the layer at another unpack level, checked against
// the layer's range.
func (l Layer) WithLevel(level unpack.Level) (Layer, error) {
	if err := checkLevel(l.Name, level); err != nil {
		return l, err
	}
	l.Level = level
	return l, nil
}
