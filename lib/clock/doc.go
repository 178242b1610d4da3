// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source for testability.
//
// Code that stamps or times work accepts a Clock instead of calling
// time.Now directly. In production, Real() provides the standard
// library behavior. In tests, Fake() provides a clock that stands still
// until Advance is called, so durations and timestamps in run reports
// are deterministic:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	run := report.New(logger, c)
//	c.Advance(5 * time.Second)
//	run.Finish() // Elapsed == 5s
package clock
