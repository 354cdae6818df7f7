// Package email holds small helpers for working with email addresses and the
// display names derived from them.
package email

import "strings"

// Domain extracts the lowercased domain part of an address. Returns false when
// the address has no usable domain.
func Domain(address string) (string, bool) {
	at := strings.LastIndexByte(address, '@')
	if at <= 0 || at == len(address)-1 {
		return "", false
	}
	return strings.ToLower(address[at+1:]), true
}

// Normalize lowercases and trims an address the way the stores key it.
func Normalize(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

// SplitName splits a full name into first and last segments on the first
// whitespace run. A name with no space yields an empty last segment; that is
// intentional, not an error.
func SplitName(full string) (first, last string) {
	full = strings.TrimSpace(full)
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
