package util

import (
	"golang.org/x/text/unicode/norm"
)

// Normalize applies NFKD normalization so that visually identical input
// always hashes to the same value regardless of how the client composed it.
func Normalize(s string) string {
	return norm.NFKD.String(s)
}
