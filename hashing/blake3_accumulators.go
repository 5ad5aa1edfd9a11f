package hashing

import (
	"hash"

	"github.com/zeebo/blake3"
)

const blake3KeySize = 32

func newBlake3(key []byte) (hash.Hash, error) {
	// Unkeyed hashing when no secret was provided.
	if len(key) == 0 {
		return blake3.New(), nil
	}

	// Does the key need to be stretched?
	if len(key) < blake3KeySize {
		var xKey [blake3KeySize]byte

		blake3.DeriveKey("blockform blake3 derived key v1", key, xKey[:])
		key = xKey[:blake3KeySize]
	}

	return blake3.NewKeyed(key[:blake3KeySize])
}

func init() {
	Register("BLAKE3-256", keyedAccumulatorFactory(newBlake3))
}
