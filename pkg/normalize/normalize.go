// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package normalize canonicalizes user-supplied display strings before they
// are validated and stored.
//
// # Usage
//
// Tag names are compared and ordered byte-wise by every store adapter, so two
// visually identical names must also be byte-identical. This package trims
// surrounding whitespace and converts to Unicode NFC (composed form).
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// Text trims surrounding whitespace and returns the NFC form of s.
//
// "Cafe\u0301" (e + combining acute) and "Caf\u00e9" both become "Caf\u00e9".
func Text(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// IsBlank reports whether s is empty after normalization.
func IsBlank(s string) bool {
	return Text(s) == ""
}

// Fold returns the normalized, case-folded form of s. Two names are the same
// name for lookup purposes when their folded forms are equal.
//
// "  WORK " and "work" both fold to "work"; "CAF\u00c9" folds to "caf\u00e9".
func Fold(s string) string {
	return cases.Fold().String(Text(s))
}

// SameName reports whether a and b fold to the same string.
func SameName(a, b string) bool {
	return Fold(a) == Fold(b)
}
