// Package hashing encapsulates the hash accumulators fed by streaming
// transforms.
package hashing

import (
	"crypto/hmac"
	"hash"
	"sort"

	"github.com/pkg/errors"
)

// Accumulator is an incremental hash: bytes are appended over any number of
// calls and the digest is produced by FinalizeAndReset, which also re-arms
// the accumulator for the next message. Accumulators are not safe for
// concurrent use.
type Accumulator interface {
	Append(data []byte)
	FinalizeAndReset() []byte
	DigestSizeBits() int
}

// Parameters encapsulates all hashing-relevant parameters.
type Parameters interface {
	GetHashFunction() string
	GetHMACSecret() []byte
}

// Options is a concrete Parameters implementation.
type Options struct {
	Algorithm  string `json:"algorithm,omitempty"`
	HMACSecret []byte `json:"hmacSecret,omitempty"`
}

// GetHashFunction implements Parameters.
func (o *Options) GetHashFunction() string { return o.Algorithm }

// GetHMACSecret implements Parameters.
func (o *Options) GetHMACSecret() []byte { return o.HMACSecret }

// AccumulatorFactory returns a hash accumulator for given parameters.
type AccumulatorFactory func(p Parameters) (Accumulator, error)

var accumulators = map[string]AccumulatorFactory{}

// Register registers a hash accumulator with a given name.
func Register(name string, newAccumulator AccumulatorFactory) {
	accumulators[name] = newAccumulator
}

// SupportedAlgorithms returns the names of the supported hashing schemes
func SupportedAlgorithms() []string {
	var result []string
	for k := range accumulators {
		result = append(result, k)
	}

	sort.Strings(result)

	return result
}

// DefaultAlgorithm is the name of the default hash algorithm.
const DefaultAlgorithm = "SHA256"

type hashAccumulator struct {
	h hash.Hash
}

func (a *hashAccumulator) Append(data []byte) {
	a.h.Write(data) //nolint:errcheck
}

func (a *hashAccumulator) FinalizeAndReset() []byte {
	digest := a.h.Sum(nil)
	a.h.Reset()

	return digest
}

func (a *hashAccumulator) DigestSizeBits() int {
	return a.h.Size() * 8 //nolint:mnd
}

// FromHash adapts any stdlib incremental hash to an Accumulator.
func FromHash(h hash.Hash) Accumulator {
	return &hashAccumulator{h}
}

// plainAccumulatorFactory returns an AccumulatorFactory over an unkeyed hash
// function. Parameters carrying an HMAC secret are rejected rather than
// silently ignored.
func plainAccumulatorFactory(hf func() hash.Hash) AccumulatorFactory {
	return func(p Parameters) (Accumulator, error) {
		if len(p.GetHMACSecret()) > 0 {
			return nil, errors.Errorf("hash function does not take an HMAC secret")
		}

		return FromHash(hf()), nil
	}
}

// hmacAccumulatorFactory returns an AccumulatorFactory that computes
// HMAC(hash, secret) of the appended bytes.
func hmacAccumulatorFactory(hf func() hash.Hash) AccumulatorFactory {
	return func(p Parameters) (Accumulator, error) {
		return FromHash(hmac.New(hf, p.GetHMACSecret())), nil
	}
}

// keyedAccumulatorFactory returns an AccumulatorFactory over a keyed hash
// function.
func keyedAccumulatorFactory(hf func(key []byte) (hash.Hash, error)) AccumulatorFactory {
	return func(p Parameters) (Accumulator, error) {
		h, err := hf(p.GetHMACSecret())
		if err != nil {
			return nil, err
		}

		return FromHash(h), nil
	}
}

// CreateAccumulator creates a hash accumulator from the given parameters.
func CreateAccumulator(p Parameters) (Accumulator, error) {
	a := accumulators[p.GetHashFunction()]
	if a == nil {
		return nil, errors.Errorf("unknown hash function %v", p.GetHashFunction())
	}

	acc, err := a(p)
	if err != nil {
		return nil, errors.Wrap(err, "unable to initialize hash")
	}

	if acc == nil {
		return nil, errors.Errorf("nil accumulator returned for %v", p.GetHashFunction())
	}

	return acc, nil
}
