package hashing

import (
	"crypto/sha256"

	"golang.org/x/crypto/sha3"
)

func init() {
	Register("SHA256", plainAccumulatorFactory(sha256.New))
	Register("SHA3-256", plainAccumulatorFactory(sha3.New256))
	Register("HMAC-SHA256", hmacAccumulatorFactory(sha256.New))
	Register("HMAC-SHA3-256", hmacAccumulatorFactory(sha3.New256))
}
