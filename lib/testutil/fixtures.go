// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"bytes"
	"encoding/binary"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bureau-foundation/obbpatch/lib/clock"
	"github.com/bureau-foundation/obbpatch/lib/deflate"
	"github.com/bureau-foundation/obbpatch/lib/report"
)

// SectionEntry is one entry of a synthetic section.
type SectionEntry struct {
	// Name is stored as given; use backslashes as real sections do.
	Name string
	Data []byte
	// Slot is the space reserved for the entry; zero means len(Data).
	Slot    int
	Flagged bool
}

// SectionSpec describes a synthetic section.
type SectionSpec struct {
	// Type is the blob type code: 0 encrypted, 1 stored, 3 deflated.
	// Behind the secondary descriptor every other code is deflated.
	Type uint32
	// Secondary declares the blob in the secondary descriptor and
	// leaves the primary one empty.
	Secondary bool
	Entries   []SectionEntry
	// Slack is extra space reserved after a deflated blob so that a
	// patched blob that compresses slightly worse still fits.
	Slack int
	// Seal encrypts the blob of a type 0 section. Nil stores the
	// plain blob.
	Seal func([]byte) []byte
}

const (
	sectionHeaderSize = 80
	containerHeader   = 64
	containerRecord   = 204
	containerNameSize = 128
)

// Section builds a "pgsr" section. The entry table directly follows the
// header and the blob follows the table.
func Section(t testing.TB, spec SectionSpec) []byte {
	t.Helper()

	var blob, table []byte
	for _, entry := range spec.Entries {
		slot := entry.Slot
		if slot == 0 {
			slot = len(entry.Data)
		}
		if len(entry.Data) > slot {
			t.Fatalf("entry %s: %d bytes do not fit a %d byte slot", entry.Name, len(entry.Data), slot)
		}
		offset := len(blob)
		blob = append(blob, entry.Data...)
		blob = append(blob, make([]byte, slot-len(entry.Data))...)

		for _, c := range []byte(entry.Name) {
			table = append(table, c, 0, 0, 0)
		}
		table = append(table, 0, 0, 0, 0)
		flag := uint32(0)
		if entry.Flagged {
			flag = 1
		}
		table = binary.LittleEndian.AppendUint32(table, flag)
		table = binary.LittleEndian.AppendUint32(table, uint32(offset))
		table = binary.LittleEndian.AppendUint32(table, uint32(len(entry.Data)))
		if entry.Flagged {
			table = append(table, make([]byte, 20)...)
		}
	}
	table = append(table, 0, 0, 0, 0)

	encoded := blob
	switch {
	case spec.Type == 0:
		if spec.Seal != nil {
			encoded = spec.Seal(blob)
		}
	case spec.Type == 1 && !spec.Secondary:
	default:
		compressed, err := deflate.Compress(blob, deflate.BestCompression)
		if err != nil {
			t.Fatalf("compressing section blob: %v", err)
		}
		encoded = append(compressed, make([]byte, spec.Slack)...)
	}

	dataOffset := sectionHeaderSize + len(table)
	header := make([]byte, sectionHeaderSize)
	copy(header, "pgsr")
	binary.LittleEndian.PutUint32(header[4:], 4)
	binary.LittleEndian.PutUint32(header[16:], spec.Type)
	binary.LittleEndian.PutUint32(header[20:], sectionHeaderSize)
	descriptor := 24
	if spec.Secondary {
		descriptor = 40
	}
	binary.LittleEndian.PutUint32(header[descriptor:], uint32(dataOffset))
	binary.LittleEndian.PutUint32(header[descriptor+4:], uint32(len(encoded)))
	binary.LittleEndian.PutUint32(header[descriptor+8:], uint32(len(blob)))
	binary.LittleEndian.PutUint32(header[72:], uint32(len(table)))
	binary.LittleEndian.PutUint32(header[76:], sectionHeaderSize)

	section := append(header, table...)
	return append(section, encoded...)
}

// ContainerEntry is one entry of a synthetic container.
type ContainerEntry struct {
	Name string
	Data []byte
}

// Container builds a "1bsr" container whose table lists entries in
// order, each payload placed back to back after the table.
func Container(t testing.TB, entries ...ContainerEntry) []byte {
	t.Helper()

	tableOffset := containerHeader
	dataOffset := tableOffset + len(entries)*containerRecord
	header := make([]byte, containerHeader)
	copy(header, "1bsr")
	binary.LittleEndian.PutUint32(header[4:], 4)
	binary.LittleEndian.PutUint32(header[40:], uint32(len(entries)))
	binary.LittleEndian.PutUint32(header[44:], uint32(tableOffset))

	var table, data []byte
	for _, entry := range entries {
		if len(entry.Name) > containerNameSize {
			t.Fatalf("container entry name %q is longer than %d bytes", entry.Name, containerNameSize)
		}
		record := make([]byte, containerRecord)
		copy(record, entry.Name)
		binary.LittleEndian.PutUint32(record[containerNameSize:], uint32(dataOffset+len(data)))
		binary.LittleEndian.PutUint32(record[containerNameSize+4:], uint32(len(entry.Data)))
		table = append(table, record...)
		data = append(data, entry.Data...)
	}

	container := append(header, table...)
	return append(container, data...)
}

// EnvelopeMagic starts a compressed SMF envelope.
var EnvelopeMagic = []byte{0xD4, 0xFE, 0xAD, 0xDE}

// Envelope wraps data in the SMF envelope.
func Envelope(t testing.TB, data []byte) []byte {
	t.Helper()
	compressed, err := deflate.Compress(data, deflate.BestCompression)
	if err != nil {
		t.Fatalf("compressing envelope: %v", err)
	}
	out := bytes.Clone(EnvelopeMagic)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(data)))
	return append(out, compressed...)
}

// NewRun returns a run report that logs to the test log.
func NewRun(t testing.TB) *report.Run {
	t.Helper()
	handler := slog.NewTextHandler(logWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug})
	return report.New(slog.New(handler), clock.Real())
}

type logWriter struct{ t testing.TB }

func (w logWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimSuffix(string(p), "\n"))
	return len(p), nil
}

// WriteTree creates files under root. Keys are slash-separated paths
// relative to root; parent directories are created as needed.
func WriteTree(t testing.TB, root string, files map[string][]byte) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("creating directory for %s: %v", name, err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}
}
