package transform

import (
	"github.com/blockform/blockform/hashing"
)

// HashDelegate is a pass-through transform that feeds every byte it sees to
// a hash accumulator, so it can sit inline in a pipeline that both hashes
// and forwards data.
type HashDelegate struct {
	blockInfo

	acc    hashing.Accumulator
	digest []byte
	closed bool
}

// NewHashDelegate returns a transform hashing all bytes with acc while
// passing them through unchanged.
func NewHashDelegate(acc hashing.Accumulator) *HashDelegate {
	return &HashDelegate{
		blockInfo: blockInfo{
			inputBlockSize:  1,
			outputBlockSize: 1,
			canReuse:        true,
			multiBlock:      true,
		},
		acc: acc,
	}
}

// ProcessChunk hashes input and copies it to output. A nil output is
// accepted for observe-only callers; the input length is reported either
// way.
func (t *HashDelegate) ProcessChunk(input, output []byte) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}

	if output != nil {
		if err := validateOutput(output, len(input)); err != nil {
			return 0, err
		}
	}

	t.digest = nil

	t.acc.Append(input)
	reportHashedBytes(int64(len(input)))

	if output != nil && len(input) > 0 && &input[0] != &output[0] {
		copy(output, input)
	}

	return len(input), nil
}

// Finalize hashes the final input, snapshots the digest and returns the
// input unchanged. The accumulator is reset and ready for a new message.
func (t *HashDelegate) Finalize(input []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrClosed
	}

	t.acc.Append(input)
	reportHashedBytes(int64(len(input)))

	t.digest = t.acc.FinalizeAndReset()

	return cloneBytes(input), nil
}

// Digest returns the digest of the last finalized message. It is only
// available between Finalize and the next processed chunk.
func (t *HashDelegate) Digest() ([]byte, error) {
	if t.closed {
		return nil, ErrClosed
	}

	if t.digest == nil {
		return nil, ErrDigestNotReady
	}

	return cloneBytes(t.digest), nil
}

func (t *HashDelegate) Close() error {
	if t.closed {
		return ErrClosed
	}

	t.digest = nil
	t.closed = true

	return nil
}
