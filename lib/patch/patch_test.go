// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package patch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/obbpatch/lib/report"
	"github.com/bureau-foundation/obbpatch/lib/rijndael"
	"github.com/bureau-foundation/obbpatch/lib/rsb"
	"github.com/bureau-foundation/obbpatch/lib/rsgp"
	"github.com/bureau-foundation/obbpatch/lib/rton"
	"github.com/bureau-foundation/obbpatch/lib/testutil"
	"github.com/bureau-foundation/obbpatch/lib/unpack"
)

var containerExtensions = []string{".obb", ".rsb", ".rsgp"}

func section(t *testing.T, name string, data string) []byte {
	t.Helper()
	return testutil.Section(t, testutil.SectionSpec{
		Type:    1,
		Entries: []testutil.SectionEntry{{Name: name, Data: []byte(data), Slot: 16}},
	})
}

func container(t *testing.T) []byte {
	t.Helper()
	return testutil.Container(t, testutil.ContainerEntry{Name: "PACKAGES", Data: section(t, "A.BIN", "old")})
}

func encoded(t *testing.T, root rton.Object) []byte {
	t.Helper()
	data, err := rton.Encode(root)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	return data
}

func readFile(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(name)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	return data
}

func assertMissing(t *testing.T, name string) {
	t.Helper()
	if _, err := os.Stat(name); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("%s exists, want no output", name)
	}
}

// entryPayload returns the payload of entry in the section that starts
// at offset within data.
func entryPayload(t *testing.T, data []byte, offset int, entry string) string {
	t.Helper()
	contents, err := rsgp.Read(data[offset:], nil)
	if err != nil {
		t.Fatalf("rsgp.Read: %v", err)
	}
	found, ok := contents.Lookup(entry)
	if !ok {
		t.Fatalf("no entry %s", entry)
	}
	payload, err := contents.Payload(found)
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	return string(payload)
}

func containerPayload(t *testing.T, data []byte, entry string) string {
	t.Helper()
	records, err := rsb.ParseTable(data)
	if err != nil {
		t.Fatalf("ParseTable: %v", err)
	}
	return entryPayload(t, data, int(records[0].Offset), entry)
}

func run(t *testing.T, job Job, input, output string) *report.Run {
	t.Helper()
	r := testutil.NewRun(t)
	if err := job.Run(context.Background(), Tree{Input: input, Output: output, Run: r}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return r
}

func TestContainersMirrorTree(t *testing.T) {
	root := t.TempDir()
	in, out, patchRoot := filepath.Join(root, "in"), filepath.Join(root, "out"), filepath.Join(root, "patch")
	testutil.WriteTree(t, in, map[string][]byte{
		"main.obb":        container(t),
		"sub/level.rsgp":  section(t, `PACKAGES\X.BIN`, "old"),
		"sub/readme.txt":  []byte("not a container"),
		"other/empty.rsb": container(t),
	})
	testutil.WriteTree(t, patchRoot, map[string][]byte{
		"main/A.BIN":               []byte("new"),
		"sub/level/PACKAGES/X.BIN": []byte("xx"),
	})

	job := Containers{Patch: patchRoot, Extensions: containerExtensions, Walker: rsb.Options{Level: unpack.Encoded}}
	r := run(t, job, in, out)

	if got := containerPayload(t, readFile(t, filepath.Join(out, "main.obb")), "A.BIN"); got != "new" {
		t.Errorf("main.obb A.BIN = %q, want %q", got, "new")
	}
	if got := entryPayload(t, readFile(t, filepath.Join(out, "sub", "level.rsgp")), 0, `PACKAGES\X.BIN`); got != "xx" {
		t.Errorf("level.rsgp X.BIN = %q, want %q", got, "xx")
	}
	if got := containerPayload(t, readFile(t, filepath.Join(out, "other", "empty.rsb")), "A.BIN"); got != "old" {
		t.Errorf("empty.rsb A.BIN = %q, want it unchanged", got)
	}
	assertMissing(t, filepath.Join(out, "sub", "readme.txt"))

	if counts := r.Counts(); counts.Wrote != 3 || counts.Patched != 2 || counts.Errors != 0 {
		t.Errorf("Counts() = %+v, want 3 written, 2 patched, no errors", counts)
	}
}

func TestContainersSingleFile(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "main.obb")
	out := filepath.Join(root, "modded", "main.obb")
	patchRoot := filepath.Join(root, "patch")
	testutil.WriteTree(t, root, map[string][]byte{
		"main.obb":    container(t),
		"patch/A.BIN": []byte("new"),
	})

	run(t, Containers{Patch: patchRoot, Extensions: containerExtensions, Walker: rsb.Options{Level: unpack.Encoded}}, in, out)
	if got := containerPayload(t, readFile(t, out), "A.BIN"); got != "new" {
		t.Errorf("A.BIN = %q, want %q", got, "new")
	}
}

func TestContainersPackIntoSMF(t *testing.T) {
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	testutil.WriteTree(t, in, map[string][]byte{
		"main.rsb":     container(t),
		"done.rsb.smf": []byte("already packed"),
	})

	job := Containers{
		Patch:      filepath.Join(root, "patch"),
		Extensions: []string{".rsb", ".rsb.smf"},
		Exclude:    []string{".rsb.smf"},
		Walker:     rsb.Options{Level: unpack.SMF},
	}
	run(t, job, in, out)
	packed := readFile(t, filepath.Join(out, "main.rsb.smf"))
	if !rsb.IsWrapped(packed) {
		t.Error("main.rsb.smf is not packed into an envelope")
	}
	assertMissing(t, filepath.Join(out, "done.rsb.smf.smf"))
}

func TestContainersSkipsOutputAndPatchRoots(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(in, "out")
	patchRoot := filepath.Join(in, "patch")
	testutil.WriteTree(t, in, map[string][]byte{
		"main.obb":         container(t),
		"patch/A.BIN":      []byte("new"),
		"patch/stray.obb":  container(t),
		"out/previous.obb": container(t),
	})

	run(t, Containers{Patch: patchRoot, Extensions: containerExtensions, Walker: rsb.Options{Level: unpack.Encoded}}, in, out)
	readFile(t, filepath.Join(out, "main.obb"))
	assertMissing(t, filepath.Join(out, "patch"))
	assertMissing(t, filepath.Join(out, "out"))
}

func TestContainersFailureIsPerFile(t *testing.T) {
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	testutil.WriteTree(t, in, map[string][]byte{
		"a.obb": []byte("garbage that is not a container"),
		"b.obb": container(t),
	})
	testutil.WriteTree(t, root, map[string][]byte{"patch/b/A.BIN": []byte("new")})

	r := run(t, Containers{Patch: filepath.Join(root, "patch"), Extensions: containerExtensions, Walker: rsb.Options{Level: unpack.Encoded}}, in, out)
	assertMissing(t, filepath.Join(out, "a.obb"))
	if got := containerPayload(t, readFile(t, filepath.Join(out, "b.obb")), "A.BIN"); got != "new" {
		t.Errorf("b.obb A.BIN = %q, want %q", got, "new")
	}
	if counts := r.Counts(); counts.Errors != 1 {
		t.Errorf("Counts() = %+v, want one error", counts)
	}
}

func TestOutputErrorStopsJob(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	blocker := filepath.Join(root, "blocker")
	testutil.WriteTree(t, root, map[string][]byte{
		"in/main.obb": container(t),
		"blocker":     []byte("a file where a directory belongs"),
	})

	job := Containers{Patch: filepath.Join(root, "patch"), Extensions: containerExtensions, Walker: rsb.Options{Level: unpack.Encoded}}
	err := job.Run(context.Background(), Tree{Input: in, Output: filepath.Join(blocker, "out"), Run: testutil.NewRun(t)})
	var outputErr *OutputError
	if !errors.As(err, &outputErr) {
		t.Errorf("Run error = %v, want *OutputError", err)
	}
}

func TestCancelledJob(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "in")
	testutil.WriteTree(t, in, map[string][]byte{"main.obb": container(t)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	job := Containers{Patch: filepath.Join(root, "patch"), Extensions: containerExtensions, Walker: rsb.Options{Level: unpack.Encoded}}
	err := job.Run(ctx, Tree{Input: in, Output: filepath.Join(root, "out"), Run: testutil.NewRun(t)})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
}

func TestEncode(t *testing.T) {
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	already := encoded(t, rton.Object{})
	testutil.WriteTree(t, in, map[string][]byte{
		"a.json":        []byte(`{"key": 0}`),
		"draper_x.json": []byte(`{"key": 0}`),
		"b.dat.json":    []byte(`{"key": 0}`),
		"cdn.json":      already,
		"bad.json":      []byte(`{"key": `),
		"skip.txt":      []byte(`{"key": 0}`),
	})

	r := run(t, Encode{NoExtensionPrefixes: []string{"draper_"}}, in, out)
	want := encoded(t, rton.Object{{Key: "key", Value: rton.IntOf(0)}})
	for _, name := range []string{"a.rton", "draper_x", "b.dat"} {
		if got := readFile(t, filepath.Join(out, name)); !bytes.Equal(got, want) {
			t.Errorf("%s = %x, want %x", name, got, want)
		}
	}
	for _, name := range []string{"cdn", "cdn.rton", "bad.rton", "skip.txt", "skip.rton"} {
		assertMissing(t, filepath.Join(out, name))
	}
	if counts := r.Counts(); counts.Errors != 1 || counts.Wrote != 3 {
		t.Errorf("Counts() = %+v, want 3 written and one error", counts)
	}
}

func TestEncrypt(t *testing.T) {
	cbc, err := rijndael.NewCBC([]byte(strings.Repeat("0", 32)), rijndael.DefaultBlockSize)
	if err != nil {
		t.Fatalf("NewCBC: %v", err)
	}
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	plain := encoded(t, rton.Object{{Key: "key", Value: rton.IntOf(0)}})
	testutil.WriteTree(t, in, map[string][]byte{
		"a.rton":    plain,
		"json.rton": []byte(`{"key": 0}`),
		"b.json":    []byte(`{"key": 0}`),
	})

	run(t, Encrypt{Extensions: []string{".rton"}, Cipher: cbc}, in, out)

	sealed := readFile(t, filepath.Join(out, "a.rton"))
	if !rijndael.IsSealed(sealed) {
		t.Fatalf("a.rton starts % x, want the encrypted marker", sealed[:2])
	}
	opened, err := cbc.OpenEntry(sealed)
	if err != nil {
		t.Fatalf("OpenEntry: %v", err)
	}
	if !bytes.HasPrefix(opened, plain) {
		t.Errorf("opened a.rton = %x, want prefix %x", opened, plain)
	}
	if got := readFile(t, filepath.Join(out, "json.rton")); !bytes.Equal(got, plain) {
		t.Errorf("json.rton = %x, want the encoded document %x", got, plain)
	}
	assertMissing(t, filepath.Join(out, "b.json"))

	if err := (Encrypt{}).Run(context.Background(), Tree{Input: in, Output: out, Run: testutil.NewRun(t)}); err == nil {
		t.Error("Encrypt without a cipher succeeded")
	}
}

func TestDecode(t *testing.T) {
	cbc, err := rijndael.NewCBC([]byte(strings.Repeat("0", 32)), rijndael.DefaultBlockSize)
	if err != nil {
		t.Fatalf("NewCBC: %v", err)
	}
	root := t.TempDir()
	in, out := filepath.Join(root, "in"), filepath.Join(root, "out")
	document := encoded(t, rton.Object{{Key: "key", Value: rton.IntOf(0)}})
	testutil.WriteTree(t, in, map[string][]byte{
		"a.rton":         document,
		"draper_profile": document,
		"sealed.rton":    cbc.SealEntry(document),
		"notes.bin":      []byte("plain text"),
		"config.json":    []byte(`{"key": 0}`),
		"cut.rton":       document[:len(document)-5],
	})

	job := Decode{
		Extensions:          []string{".bin", ".json", ".rton"},
		NoExtensionPrefixes: []string{"draper_"},
		Repair:              true,
		Indent:              "\t",
		ShortNames:          true,
		Cipher:              cbc,
	}
	r := run(t, job, in, out)

	want := "{\n\t\"key\": 0\n}\n"
	for _, name := range []string{"a.json", "draper_profile.json", "sealed.json", "cut.json"} {
		if got := string(readFile(t, filepath.Join(out, name))); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	assertMissing(t, filepath.Join(out, "notes.json"))
	assertMissing(t, filepath.Join(out, "config.json.json"))

	// One warning for notes.bin, one for the repaired truncation.
	if counts := r.Counts(); counts.Warnings != 2 || counts.Errors != 0 {
		t.Errorf("Counts() = %+v, want two warnings and no errors", counts)
	}
}

func TestDecodeLongNames(t *testing.T) {
	root := t.TempDir()
	in := filepath.Join(root, "level.rton")
	out := filepath.Join(root, "out", "level.rton")
	testutil.WriteTree(t, root, map[string][]byte{"level.rton": encoded(t, rton.Object{})})

	run(t, Decode{Extensions: []string{".rton"}, Indent: "  "}, in, out)
	if got := string(readFile(t, out+".json")); got != "{}\n" {
		t.Errorf("level.rton.json = %q, want %q", got, "{}\n")
	}
}

func TestPatchDir(t *testing.T) {
	tests := []struct {
		rel  string
		want string
	}{
		{"", "."},
		{"main.obb", "main"},
		{"dir/main.rsb.smf", "dir/main.rsb"},
		{"dir/noext", "dir/noext"},
	}
	for _, tt := range tests {
		if got := patchDir(tt.rel); got != tt.want {
			t.Errorf("patchDir(%q) = %q, want %q", tt.rel, got, tt.want)
		}
	}
}

func TestWithin(t *testing.T) {
	root := t.TempDir()
	roots := []string{filepath.Join(root, "out")}
	tests := []struct {
		dir  string
		want bool
	}{
		{filepath.Join(root, "out"), true},
		{filepath.Join(root, "out", "nested"), true},
		{filepath.Join(root, "output"), false},
		{filepath.Join(root, "in"), false},
		{root, false},
	}
	for _, tt := range tests {
		if got := within(tt.dir, roots); got != tt.want {
			t.Errorf("within(%q) = %v, want %v", tt.dir, got, tt.want)
		}
	}
}

func TestEncodedName(t *testing.T) {
	deny := []string{"draper_", "loot"}
	tests := []struct {
		out  string
		want string
	}{
		{"a.json", "a.rton"},
		{"A.JSON", "A.rton"},
		{"b.dat.json", "b.dat"},
		{"draper_x.json", "draper_x"},
		{"LOOT.json", "LOOT"},
		{"c.rton", "c.rton"},
		{filepath.Join("dir", "d.json"), filepath.Join("dir", "d.rton")},
	}
	for _, tt := range tests {
		if got := encodedName(tt.out, deny); got != tt.want {
			t.Errorf("encodedName(%q) = %q, want %q", tt.out, got, tt.want)
		}
	}
}
