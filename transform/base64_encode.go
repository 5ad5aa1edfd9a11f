package transform

import (
	"encoding/base64"

	"github.com/pkg/errors"
)

func init() {
	RegisterCodec(Base64EncodeCodec, "Base64 encoder (standard alphabet)", func() Transform {
		return NewBase64Encoder()
	})
}

type base64Encoder struct {
	blockInfo

	closed bool
}

// NewBase64Encoder returns a transform producing standard-alphabet Base64
// text. Every call pads its own tail, so callers must feed 3-byte multiples
// to every call except the one carrying the end of the message.
func NewBase64Encoder() Transform {
	return &base64Encoder{
		blockInfo: blockInfo{
			inputBlockSize:  3,
			outputBlockSize: 4,
			canReuse:        true,
			multiBlock:      true,
		},
	}
}

// encodedLength returns the number of characters produced for n input bytes,
// always a multiple of 4.
func encodedLength(n int) int {
	return (n + 2) / 3 * 4
}

func (t *base64Encoder) ProcessChunk(input, output []byte) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}

	need := encodedLength(len(input))

	if err := validateOutput(output, need); err != nil {
		return 0, err
	}

	if len(input) == 0 {
		return 0, nil
	}

	if got := base64.StdEncoding.EncodedLen(len(input)); got != need {
		return 0, errors.Wrapf(ErrCodecViolation, "encoder produced %v characters, expected %v", got, need)
	}

	base64.StdEncoding.Encode(output, input)
	reportEncodedBytes(int64(len(input)))

	return need, nil
}

func (t *base64Encoder) Finalize(input []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrClosed
	}

	if len(input) == 0 {
		return nil, nil
	}

	result := make([]byte, encodedLength(len(input)))

	if _, err := t.ProcessChunk(input, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (t *base64Encoder) Close() error {
	if t.closed {
		return ErrClosed
	}

	t.closed = true

	return nil
}
