package store

import (
	"crypto/sha256"
	"fmt"
)

// ComputeSourceHash returns a hex SHA-256 over the grammar name and source
// bytes. The same text parsed with different grammars hashes differently.
func ComputeSourceHash(language string, src []byte) string {
	h := sha256.New()
	fmt.Fprintf(h, "language:%s\n", language)
	fmt.Fprintf(h, "length:%d\n", len(src))
	h.Write(src)
	return fmt.Sprintf("%x", h.Sum(nil))
}
