// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package report collects the outcome of a patch run: every patched
// entry, every written output, and every warning and error, each
// logged as it happens and kept for a final summary. A run report can
// be saved as CBOR and loaded back for inspection.
package report

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/obbpatch/lib/binhash"
	"github.com/bureau-foundation/obbpatch/lib/clock"
	"github.com/bureau-foundation/obbpatch/lib/codec"
	"github.com/bureau-foundation/obbpatch/lib/version"
)

// Kind classifies an Event.
type Kind string

const (
	KindInfo    Kind = "info"
	KindPatched Kind = "patched"
	KindWrote   Kind = "wrote"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// Event is one recorded outcome.
type Event struct {
	Time    time.Time       `cbor:"time"`
	Kind    Kind            `cbor:"kind"`
	Path    string          `cbor:"path"`
	Entry   string          `cbor:"entry,omitempty"`
	Message string          `cbor:"message,omitempty"`
	Size    int             `cbor:"size,omitempty"`
	Digest  *binhash.Digest `cbor:"digest,omitempty"`
}

// Counts tallies events by kind.
type Counts struct {
	Patched  int
	Wrote    int
	Warnings int
	Errors   int
}

// Summary is the persisted form of a finished run.
type Summary struct {
	Version string        `cbor:"version"`
	Started time.Time     `cbor:"started"`
	Elapsed time.Duration `cbor:"elapsed"`
	Events  []Event       `cbor:"events"`
}

// Counts tallies the summary's events.
func (s *Summary) Counts() Counts {
	return countEvents(s.Events)
}

// Run records events for one patch run. Safe for concurrent use.
type Run struct {
	logger  *slog.Logger
	clock   clock.Clock
	started time.Time

	mu     sync.Mutex
	events []Event
}

// New starts a run. Events are logged to logger as they are recorded.
func New(logger *slog.Logger, c clock.Clock) *Run {
	return &Run{logger: logger, clock: c, started: c.Now()}
}

func (r *Run) record(level slog.Level, event Event) {
	event.Time = r.clock.Now()

	attrs := []any{"path", event.Path}
	if event.Entry != "" {
		attrs = append(attrs, "entry", event.Entry)
	}
	if event.Digest != nil {
		attrs = append(attrs, "size", event.Size, "blake3", event.Digest.String())
	}
	message := event.Message
	if message == "" {
		message = string(event.Kind)
	}
	r.logger.Log(context.Background(), level, message, attrs...)

	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

// Info records a progress note.
func (r *Run) Info(path, entry, message string) {
	r.record(slog.LevelDebug, Event{Kind: KindInfo, Path: path, Entry: entry, Message: message})
}

// Warning records a non-fatal problem.
func (r *Run) Warning(path, entry, message string) {
	r.record(slog.LevelWarn, Event{Kind: KindWarning, Path: path, Entry: entry, Message: message})
}

// Error records a failure confined to one entry, section or file.
func (r *Run) Error(path, entry string, err error) {
	r.record(slog.LevelError, Event{Kind: KindError, Path: path, Entry: entry, Message: err.Error()})
}

// Patched records a replacement payload written into a container.
func (r *Run) Patched(path, entry string, payload []byte) {
	digest := binhash.Sum(payload)
	r.record(slog.LevelInfo, Event{Kind: KindPatched, Path: path, Entry: entry, Size: len(payload), Digest: &digest})
}

// Wrote records a finished output file.
func (r *Run) Wrote(path string, data []byte) {
	digest := binhash.Sum(data)
	r.record(slog.LevelInfo, Event{Kind: KindWrote, Path: path, Size: len(data), Digest: &digest})
}

// Events returns a copy of the events recorded so far.
func (r *Run) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Counts tallies the events recorded so far.
func (r *Run) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()
	return countEvents(r.events)
}

// HasErrors reports whether any error has been recorded.
func (r *Run) HasErrors() bool {
	return r.Counts().Errors > 0
}

// Finish returns the run's summary. Recording may continue afterwards;
// a later Finish includes the new events.
func (r *Run) Finish() *Summary {
	return &Summary{
		Version: version.Info(),
		Started: r.started,
		Elapsed: r.clock.Since(r.started),
		Events:  r.Events(),
	}
}

func countEvents(events []Event) Counts {
	var counts Counts
	for _, event := range events {
		switch event.Kind {
		case KindPatched:
			counts.Patched++
		case KindWrote:
			counts.Wrote++
		case KindWarning:
			counts.Warnings++
		case KindError:
			counts.Errors++
		}
	}
	return counts
}

// Save writes the summary to path as CBOR.
func (s *Summary) Save(path string) error {
	data, err := codec.Marshal(s)
	if err != nil {
		return fmt.Errorf("encoding run report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing run report: %w", err)
	}
	return nil
}

// Load reads a summary written by Save.
func Load(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run report: %w", err)
	}
	var summary Summary
	if err := codec.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("decoding run report %s: %w", path, err)
	}
	return &summary, nil
}
