// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

// EnvironmentVariable names the configuration file when no --config
// flag is given.
const EnvironmentVariable = "OBBPATCH_CONFIG"

// ErrNotConfigured is returned by Load when EnvironmentVariable is not
// set.
var ErrNotConfigured = errors.New(EnvironmentVariable + " environment variable not set")

// Config is the complete obbpatch configuration.
type Config struct {
	// SMF configures packing plain containers into the SMF envelope.
	SMF LayerConfig `yaml:"smf"`

	// RSB configures whole-section replacement in containers.
	RSB RSBConfig `yaml:"rsb"`

	// RSGP configures patching inside sections.
	RSGP RSGPConfig `yaml:"rsgp"`

	// Encryption configures the entry cipher.
	Encryption EncryptionConfig `yaml:"encryption"`

	// RTON configures JSON conversion.
	RTON RTONConfig `yaml:"rton"`

	// Paths holds default locations for command flags.
	Paths PathsConfig `yaml:"paths"`
}

// LayerConfig is shared by every container layer.
type LayerConfig struct {
	// Extensions selects input files by suffix, case-insensitively.
	Extensions []string `yaml:"extensions"`

	// UnpackLevel selects how deeply the layer unpacks. It may be given
	// by name or number.
	UnpackLevel unpack.Level `yaml:"unpack_level"`
}

// RSBConfig configures the RSB layer.
type RSBConfig struct {
	LayerConfig `yaml:",inline"`

	// Sections selects container sections by name. The RSGP layer
	// uses the same filter.
	Sections unpack.Filter `yaml:"sections"`
}

// RSGPConfig configures the RSGP layer.
type RSGPConfig struct {
	LayerConfig `yaml:",inline"`

	// Entries selects section entries by path.
	Entries unpack.Filter `yaml:"entries"`
}

// EncryptionConfig configures the entry cipher.
type EncryptionConfig struct {
	// Extensions selects the files the encrypt command seals.
	Extensions []string `yaml:"extensions"`

	// Key is the raw key material; its bytes are used as is.
	// Default: 32 ASCII zeros
	Key string `yaml:"key"`

	// KeyFile, when set, is read instead of Key. Surrounding
	// whitespace is trimmed.
	KeyFile string `yaml:"key_file"`

	// BlockSize is the cipher block size in bytes: 16, 24 or 32.
	// Default: 24
	BlockSize int `yaml:"block_size"`

	// DecryptSections decrypts encrypted section blobs for patching
	// and re-encrypts them afterwards. When false they are patched as
	// stored.
	DecryptSections bool `yaml:"decrypt_sections"`
}

// RTONConfig configures JSON conversion.
type RTONConfig struct {
	// Extensions selects the files the decode command reads.
	Extensions []string `yaml:"extensions"`

	// NoExtensionPrefixes lists base-name prefixes of RTON files that
	// carry no extension.
	NoExtensionPrefixes []string `yaml:"no_extension_prefixes"`

	// Repair ends truncated RTON documents instead of failing.
	Repair bool `yaml:"repair"`

	// Indent is written once per nesting level of decoded JSON.
	// Default: a tab
	Indent string `yaml:"indent"`

	// ShortNames replaces the extension of decoded files with .json
	// instead of appending it.
	ShortNames bool `yaml:"short_names"`
}

// PathsConfig holds default locations. ${HOME} and ${VAR:-default}
// patterns are expanded.
type PathsConfig struct {
	// Patch is the default replacement directory of the patch command.
	Patch string `yaml:"patch"`

	// Report is where run reports are saved when --report is not given.
	// Empty disables saving.
	Report string `yaml:"report"`
}

var containerExtensions = []string{".1bsr", ".rsb1", ".bsr", ".rsb", ".rsb.smf", ".obb"}

// Default returns the configuration used when no file is given. Files
// are merged over it.
func Default() *Config {
	return &Config{
		SMF: LayerConfig{
			Extensions:  []string{".rsb.smf"},
			UnpackLevel: unpack.SMF,
		},
		RSB: RSBConfig{
			LayerConfig: LayerConfig{
				Extensions:  slices.Clone(containerExtensions),
				UnpackLevel: unpack.RSB,
			},
			Sections: unpack.Filter{
				StartsWith:     []string{"packages", "worldpackages_"},
				EndsWithIgnore: true,
			},
		},
		RSGP: RSGPConfig{
			LayerConfig: LayerConfig{
				Extensions:  append(slices.Clone(containerExtensions), ".pgsr", ".rsgp"),
				UnpackLevel: unpack.Decoded,
			},
			Entries: unpack.Filter{
				StartsWith: []string{"packages/"},
				EndsWith:   []string{".rton"},
			},
		},
		Encryption: EncryptionConfig{
			Extensions: []string{".rton"},
			Key:        strings.Repeat("0", 32),
			BlockSize:  24,
		},
		RTON: RTONConfig{
			Extensions:          []string{".bin", ".dat", ".json", ".rton", ".section"},
			NoExtensionPrefixes: []string{"draper_", "local_profiles", "loot", "_saveheader_rton"},
			Indent:              "\t",
			ShortNames:          true,
		},
	}
}

// Load loads configuration from the file named by the OBBPATCH_CONFIG
// environment variable. It returns ErrNotConfigured when the variable
// is not set.
func Load() (*Config, error) {
	configPath := os.Getenv(EnvironmentVariable)
	if configPath == "" {
		return nil, ErrNotConfigured
	}
	return LoadFile(configPath)
}

// LoadFile merges the file at path over the defaults. YAML and JSON are
// accepted; files ending in .json or .jsonc may contain comments and
// trailing commas.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

// loadFile merges a single configuration file into c.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		// YAML is a superset of JSON, so one decoder serves both.
		data = jsonc.ToJSON(data)
	}

	var keys map[string]any
	if err := yaml.Unmarshal(data, &keys); err != nil {
		return err
	}
	if isLegacy(keys) {
		var options legacyOptions
		if err := decodeStrict(data, &options); err != nil {
			return err
		}
		return options.apply(c)
	}
	return decodeStrict(data, c)
}

// decodeStrict decodes data into v, rejecting keys v has no field for.
// An empty document leaves v unchanged.
func decodeStrict(data []byte, v any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// expandVariables expands ${VAR} and ${VAR:-default} patterns in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Paths.Patch = expandVars(c.Paths.Patch, vars)
	c.Paths.Report = expandVars(c.Paths.Report, vars)
	c.Encryption.KeyFile = expandVars(c.Encryption.KeyFile, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}

		// Check provided vars first, then environment.
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// levelRanges bounds the unpack level of each container layer.
var levelRanges = map[string][2]unpack.Level{
	LayerSMF:  {unpack.SMF, unpack.RSB},
	LayerRSB:  {unpack.RSB, unpack.RSGP},
	LayerRSGP: {unpack.RSGP, unpack.Decoded},
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	levels := map[string]unpack.Level{
		LayerSMF:  c.SMF.UnpackLevel,
		LayerRSB:  c.RSB.UnpackLevel,
		LayerRSGP: c.RSGP.UnpackLevel,
	}
	for _, layer := range Layers {
		if err := checkLevel(layer, levels[layer]); err != nil {
			errs = append(errs, err)
		}
	}

	if len(c.RSB.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("rsb.extensions must not be empty"))
	}
	if len(c.RSGP.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("rsgp.extensions must not be empty"))
	}
	if len(c.Encryption.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("encryption.extensions must not be empty"))
	}
	if len(c.RTON.Extensions) == 0 {
		errs = append(errs, fmt.Errorf("rton.extensions must not be empty"))
	}

	blockSizes := []int{16, 24, 32}
	if !slices.Contains(blockSizes, c.Encryption.BlockSize) {
		errs = append(errs, fmt.Errorf("encryption.block_size must be one of: %v", blockSizes))
	}
	if c.Encryption.KeyFile == "" {
		if err := CheckKey(len(c.Encryption.Key), c.Encryption.BlockSize); err != nil {
			errs = append(errs, fmt.Errorf("encryption.key: %w", err))
		}
	}

	if strings.TrimSpace(c.RTON.Indent) != "" {
		errs = append(errs, fmt.Errorf("rton.indent must be whitespace, got %q", c.RTON.Indent))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// CheckKey reports whether a key of keyLength bytes can drive the entry
// cipher with the given block size: the key must be a valid Rijndael
// key size and long enough to hold the IV, which starts at byte 4.
func CheckKey(keyLength, blockSize int) error {
	if keyLength != 16 && keyLength != 24 && keyLength != 32 {
		return fmt.Errorf("key is %d bytes, want 16, 24 or 32", keyLength)
	}
	if keyLength < 4+blockSize {
		return fmt.Errorf("key is %d bytes, too short for a %d byte IV at offset 4", keyLength, blockSize)
	}
	return nil
}

func checkLevel(layer string, level unpack.Level) error {
	bounds := levelRanges[layer]
	if level < bounds[0] || level > bounds[1] {
		return fmt.Errorf("%s.unpack_level %v must be between %v and %v", layer, level, bounds[0], bounds[1])
	}
	return nil
}
