// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for obbpatch packages.
//
// The binary formats obbpatch patches are built synthetically rather
// than checked in as fixtures:
//
//   - [Section] builds an RSGP section ("pgsr") from a list of named
//     entries, stored, deflated or encrypted, behind either blob
//     descriptor.
//   - [Container] builds an RSB container ("1bsr") whose entry table
//     points at the given payloads.
//   - [Envelope] wraps data in the compressed SMF envelope.
//
// [NewRun] returns a run report whose log output goes to the test log,
// and [WriteTree] lays out a directory of files under a test's temp
// directory.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since test setup failures are not recoverable.
package testutil
