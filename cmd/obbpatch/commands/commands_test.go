// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/obbpatch/cmd/obbpatch/cli"
	"github.com/bureau-foundation/obbpatch/lib/config"
	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/rsb"
	"github.com/bureau-foundation/obbpatch/lib/testutil"
)

const levelJSON = "{\n\t\"name\": \"level\",\n\t\"waves\": [\n\t\t1,\n\t\t2\n\t]\n}\n"

// execute runs the command tree with defaults-only configuration and
// returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvironmentVariable, "")
	var stdout bytes.Buffer
	err := root(&stdout).Execute(context.Background(), args)
	return stdout.String(), err
}

func gameContainer(t *testing.T) []byte {
	t.Helper()
	section := testutil.Section(t, testutil.SectionSpec{
		Type: 1,
		Entries: []testutil.SectionEntry{
			{Name: `PACKAGES\LEVEL.RTON`, Data: []byte("RTON\x01\x00\x00\x00\xffDONE"), Slot: 96},
		},
	})
	return testutil.Container(t, testutil.ContainerEntry{Name: "PACKAGES", Data: section})
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return data
}

func TestPatchCommand(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "in")
	testutil.WriteTree(t, input, map[string][]byte{"main.obb": gameContainer(t)})
	testutil.WriteTree(t, root, map[string][]byte{"patches/main/PACKAGES/LEVEL.json": []byte(levelJSON)})

	stdout, err := execute(t, "patch",
		"--input", input,
		"--output", filepath.Join(root, "out"),
		"--patch", filepath.Join(root, "patches"))
	if err != nil {
		t.Fatalf("patch failed: %v", err)
	}
	if !strings.Contains(stdout, "1 entry patched, 1 file written") {
		t.Errorf("patch summary = %q", stdout)
	}
	patched := readFile(t, filepath.Join(root, "out", "main.obb"))
	if bytes.Equal(patched, gameContainer(t)) {
		t.Error("patched container is identical to the input")
	}
	if !bytes.Contains(patched, []byte("waves")) {
		t.Error("patched container does not hold the encoded JSON")
	}
}

func TestPatchCommandRecordsErrors(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "in")
	reportPath := filepath.Join(root, "run.cbor")
	testutil.WriteTree(t, input, map[string][]byte{
		"broken.obb": []byte("not a container"),
		"main.obb":   gameContainer(t),
	})

	stdout, err := execute(t, "patch",
		"-i", input,
		"-o", filepath.Join(root, "out"),
		"-p", filepath.Join(root, "patches"),
		"--report", reportPath)

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) || exitErr.Code != cli.ExitCodeErrors {
		t.Fatalf("patch error = %v, want exit code %d", err, cli.ExitCodeErrors)
	}
	if !strings.Contains(stdout, "1 error occurred, see "+reportPath) {
		t.Errorf("patch summary = %q", stdout)
	}
	// The healthy container is still written.
	readFile(t, filepath.Join(root, "out", "main.obb"))

	shown, err := execute(t, "report", reportPath)
	if err != nil {
		t.Fatalf("report failed: %v", err)
	}
	if !strings.Contains(shown, "broken.obb") || !strings.Contains(shown, "error") {
		t.Errorf("report output = %q, want the broken file's error", shown)
	}
}

func TestPatchCommandPacksSMF(t *testing.T) {
	root := t.TempDir()
	input := filepath.Join(root, "in")
	testutil.WriteTree(t, input, map[string][]byte{"main.rsb": gameContainer(t)})

	if _, err := execute(t, "patch", "-i", input, "-o", filepath.Join(root, "out"), "--layer", "smf", "--level", "RSB"); err != nil {
		t.Fatalf("patch --layer smf failed: %v", err)
	}
	if packed := readFile(t, filepath.Join(root, "out", "main.rsb.smf")); !rsb.IsWrapped(packed) {
		t.Error("main.rsb.smf is not in the SMF envelope")
	}
}

func TestPatchCommandArguments(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name:    "missing input",
			args:    []string{"patch", "-o", root, "-p", root},
			wantErr: "--input and --output are required",
		},
		{
			name:    "missing patch directory",
			args:    []string{"patch", "-i", root, "-o", root},
			wantErr: "--patch is required",
		},
		{
			name:    "level outside layer",
			args:    []string{"patch", "-i", root, "-o", root, "-p", root, "--layer", "rsb", "--level", "DECODED"},
			wantErr: "rsb.unpack_level DECODED must be between RSB and RSGP",
		},
		{
			name:    "unknown layer",
			args:    []string{"patch", "-i", root, "-o", root, "-p", root, "--layer", "zip"},
			wantErr: `unknown layer "zip"`,
		},
		{
			name:    "short key",
			args:    []string{"patch", "-i", root, "-o", root, "-p", root, "--key", "short"},
			wantErr: "key is 5 bytes",
		},
		{
			name:    "stray argument",
			args:    []string{"patch", "-i", root, "-o", root, "-p", root, "extra"},
			wantErr: "unexpected argument: extra",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("execute(%v) error = %v, want %q", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestEncodeDecodeCommands(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "json")
	encoded := filepath.Join(root, "rton")
	decoded := filepath.Join(root, "decoded")
	testutil.WriteTree(t, source, map[string][]byte{"levels/level.json": []byte(levelJSON)})

	if _, err := execute(t, "encode", "-i", source, "-o", encoded); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	rton := readFile(t, filepath.Join(encoded, "levels", "level.rton"))
	if !bytes.HasPrefix(rton, []byte("RTON")) {
		t.Fatalf("encoded file starts with %q, want RTON", rton[:min(4, len(rton))])
	}

	if _, err := execute(t, "decode", "-i", encoded, "-o", decoded); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := string(readFile(t, filepath.Join(decoded, "levels", "level.json"))); got != levelJSON {
		t.Errorf("decode(encode(json)) =\n%s\nwant\n%s", got, levelJSON)
	}
}

func TestEncryptCommand(t *testing.T) {
	root := t.TempDir()
	source := filepath.Join(root, "json")
	encoded := filepath.Join(root, "rton")
	sealed := filepath.Join(root, "sealed")
	decoded := filepath.Join(root, "decoded")
	key := "abcdefghijklmnopqrstuvwxyz012345"
	testutil.WriteTree(t, source, map[string][]byte{"level.json": []byte(levelJSON)})

	if _, err := execute(t, "encode", "-i", source, "-o", encoded); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if _, err := execute(t, "encrypt", "-i", encoded, "-o", sealed, "--key", key); err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if data := readFile(t, filepath.Join(sealed, "level.rton")); !rijndael.IsSealed(data) {
		t.Fatalf("encrypted file starts with % x, want the encrypted-entry marker", data[:2])
	}

	// Decoding opens sealed files with the same key.
	keyFile := filepath.Join(root, "key")
	if err := os.WriteFile(keyFile, []byte(key+"\n"), 0600); err != nil {
		t.Fatalf("writing key file: %v", err)
	}
	if _, err := execute(t, "decode", "-i", sealed, "-o", decoded, "--key-file", keyFile); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got := string(readFile(t, filepath.Join(decoded, "level.json"))); got != levelJSON {
		t.Errorf("decoded sealed file =\n%s\nwant\n%s", got, levelJSON)
	}
}

func TestConfigFlag(t *testing.T) {
	root := t.TempDir()
	configPath := filepath.Join(root, "options.jsonc")
	if err := os.WriteFile(configPath, []byte(`{"encryption": {"block_size": 20}, // bad
}`), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	_, err := execute(t, "encode", "-i", root, "-o", filepath.Join(root, "out"), "--config", configPath)
	if err == nil || !strings.Contains(err.Error(), "encryption.block_size") {
		t.Errorf("encode with bad config error = %v, want block size error", err)
	}
}

func TestVersionCommand(t *testing.T) {
	stdout, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "obbpatch ") {
		t.Errorf("version output = %q", stdout)
	}
}

func TestRootSuggestsCommands(t *testing.T) {
	_, err := execute(t, "decdoe")
	if err == nil || !strings.Contains(err.Error(), `did you mean "decode"`) {
		t.Errorf("execute(decdoe) error = %v, want suggestion of decode", err)
	}
}
