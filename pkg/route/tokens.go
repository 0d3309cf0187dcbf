package route

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Tokenize splits a route string on whitespace and drops "DCT" (direct)
// tokens in any case.
func Tokenize(route string) []string {
	fields := strings.Fields(route)
	tokens := fields[:0]
	for _, f := range fields {
		if strings.EqualFold(f, "DCT") {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Fingerprint identifies the content of a token list. Two lists with the
// same concatenated text and token count share a fingerprint.
type Fingerprint struct {
	sum   uint64
	count int
}

// FingerprintOf hashes tokens with xxhash.
func FingerprintOf(tokens []string) Fingerprint {
	d := xxhash.New()
	for _, t := range tokens {
		d.WriteString(t)
	}
	return Fingerprint{sum: d.Sum64(), count: len(tokens)}
}
