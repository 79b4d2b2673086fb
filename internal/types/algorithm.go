package types

import (
	"fmt"
	"strings"
)

type Algorithm string

const (
	SHA256 Algorithm = "SHA256"
	BLAKE3 Algorithm = "BLAKE3"
)

// Digests of zero-length input.
const (
	EmptySHA256 = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	EmptyBLAKE3 = "af1349b9f5f9a1a6a0404dea36dcc9499bcb25c9adc112b7cc9a93cae41f3262"
)

func ParseAlgorithm(s string) (Algorithm, error) {
	switch Algorithm(strings.ToUpper(strings.TrimSpace(s))) {
	case SHA256:
		return SHA256, nil
	case BLAKE3:
		return BLAKE3, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, s)
	}
}

// Column is the lowercase name used as the digest column header in output files.
func (a Algorithm) Column() string {
	return strings.ToLower(string(a))
}

// HexLen is the length of the lowercase hex digest.
func (a Algorithm) HexLen() int {
	return 64
}

func (a Algorithm) EmptyDigest() string {
	if a == BLAKE3 {
		return EmptyBLAKE3
	}
	return EmptySHA256
}
