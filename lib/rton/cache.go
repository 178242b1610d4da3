// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package rton

// StringCache interns strings for one document. It keeps two
// independent append-only tables, one for plain strings and one for
// printable strings. A StringCache must not be shared between
// documents.
type StringCache struct {
	plain      []string
	printable  []string
	plainIndex map[string]int
}

// NewStringCache returns an empty cache.
func NewStringCache() *StringCache {
	return &StringCache{plainIndex: make(map[string]int)}
}

// Len returns the sizes of the plain and printable tables.
func (c *StringCache) Len() (plain, printable int) {
	return len(c.plain), len(c.printable)
}

// Plain returns the plain string stored at index.
func (c *StringCache) Plain(index uint64) (string, bool) {
	if index >= uint64(len(c.plain)) {
		return "", false
	}
	return c.plain[index], true
}

// Printable returns the printable string stored at index.
func (c *StringCache) Printable(index uint64) (string, bool) {
	if index >= uint64(len(c.printable)) {
		return "", false
	}
	return c.printable[index], true
}

// StorePlain appends s to the plain table and returns its index.
func (c *StringCache) StorePlain(s string) int {
	index := len(c.plain)
	c.plain = append(c.plain, s)
	if _, seen := c.plainIndex[s]; !seen {
		c.plainIndex[s] = index
	}
	return index
}

// StorePrintable appends s to the printable table and returns its index.
func (c *StringCache) StorePrintable(s string) int {
	c.printable = append(c.printable, s)
	return len(c.printable) - 1
}

// LookupPlain returns the first index at which s was stored.
func (c *StringCache) LookupPlain(s string) (int, bool) {
	index, ok := c.plainIndex[s]
	return index, ok
}
