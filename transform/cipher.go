package transform

import (
	"crypto/cipher"
)

// CipherStream applies a stream-cipher keystream to every byte flowing
// through it, in encrypt and decrypt direction alike. The keystream position
// cannot rewind, so the instance is spent once finalized.
type CipherStream struct {
	blockInfo

	stream    cipher.Stream
	finalized bool
	closed    bool
}

// NewCipherStream returns a transform XOR-ing the data with the keystream of
// stream.
func NewCipherStream(stream cipher.Stream) *CipherStream {
	return &CipherStream{
		blockInfo: blockInfo{
			inputBlockSize:  1,
			outputBlockSize: 1,
			canReuse:        false,
			multiBlock:      true,
		},
		stream: stream,
	}
}

func (t *CipherStream) ProcessChunk(input, output []byte) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}

	if t.finalized {
		return 0, ErrAlreadyFinalized
	}

	if err := validateOutput(output, len(input)); err != nil {
		return 0, err
	}

	t.stream.XORKeyStream(output[:len(input)], input)

	return len(input), nil
}

func (t *CipherStream) Finalize(input []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrClosed
	}

	if t.finalized {
		return nil, ErrAlreadyFinalized
	}

	t.finalized = true

	if len(input) == 0 {
		return nil, nil
	}

	result := make([]byte, len(input))
	t.stream.XORKeyStream(result, input)

	return result, nil
}

func (t *CipherStream) Close() error {
	if t.closed {
		return ErrClosed
	}

	t.closed = true

	return nil
}
