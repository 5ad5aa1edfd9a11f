package transform

import (
	"encoding/base64"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/internal/bufpool"
)

func init() {
	RegisterCodec(Base64DecodeCodec, "Base64 decoder (standard alphabet, whitespace ignored)", func() Transform {
		return NewBase64Decoder(IgnoreWhitespace)
	})
}

// WhitespaceMode controls how the Base64 decoder treats ASCII whitespace.
type WhitespaceMode int

const (
	// IgnoreWhitespace filters whitespace out of the stream before group
	// alignment is computed.
	IgnoreWhitespace WhitespaceMode = iota

	// PreserveWhitespace keeps whitespace in the stream, where it fails
	// decoding like any other non-alphabet byte.
	PreserveWhitespace
)

type base64Decoder struct {
	blockInfo

	mode WhitespaceMode

	// Base64 characters seen but not yet forming a complete 4-character
	// group, carried to the next call.
	remainder  [3]byte
	nRemainder int

	closed bool
}

// NewBase64Decoder returns a transform converting standard-alphabet Base64
// text back to raw bytes. The text may be split at arbitrary positions:
// characters that do not complete a 4-character group are carried to the
// next call. Finalization tolerates a dangling group of 1-3 characters by
// dropping it.
func NewBase64Decoder(mode WhitespaceMode) Transform {
	return &base64Decoder{
		blockInfo: blockInfo{
			inputBlockSize:  1,
			outputBlockSize: 3,
			canReuse:        true,
			multiBlock:      true,
		},
		mode: mode,
	}
}

func (t *base64Decoder) ProcessChunk(input, output []byte) (int, error) {
	if t.closed {
		return 0, ErrClosed
	}

	hasWhitespace := t.mode == IgnoreWhitespace && containsWhitespace(input)

	// Fast path: nothing carried and nothing to filter, so the caller's
	// buffer is already group-aligned material.
	if t.nRemainder == 0 && !hasWhitespace {
		return t.processAligned(input, output)
	}

	scratch := bufpool.Lease(t.nRemainder + len(input))
	defer scratch.Release()

	buf := append(scratch.Data[:0], t.remainder[:t.nRemainder]...)

	if t.mode == IgnoreWhitespace {
		buf = appendWithoutWhitespace(buf, input)
	} else {
		buf = append(buf, input...)
	}

	return t.processAligned(buf, output)
}

// processAligned consumes an assembled sequence (carried remainder plus
// filtered chunk), decodes its complete groups and carries the dangling tail
// forward.
func (t *base64Decoder) processAligned(data, output []byte) (int, error) {
	total := len(data)

	if total < 4 {
		copy(t.remainder[:], data)
		t.nRemainder = total

		return 0, nil
	}

	decodeLen := total - total%4

	n, err := t.decodeGroups(data[:decodeLen], output)
	if err != nil {
		return 0, err
	}

	// Advance the carried tail only after a successful decode, so a caller
	// hitting ErrMalformedInput observes unchanged decoder state.
	t.nRemainder = copy(t.remainder[:], data[decodeLen:])

	return n, nil
}

func (t *base64Decoder) Finalize(input []byte) ([]byte, error) {
	if t.closed {
		return nil, ErrClosed
	}

	carried := t.nRemainder

	// The message ends here; no remainder survives finalization, not even
	// when decoding fails.
	t.nRemainder = 0

	hasWhitespace := t.mode == IgnoreWhitespace && containsWhitespace(input)

	if carried == 0 && !hasWhitespace {
		return t.finalizeAligned(input)
	}

	scratch := bufpool.Lease(carried + len(input))
	defer scratch.Release()

	buf := append(scratch.Data[:0], t.remainder[:carried]...)

	if t.mode == IgnoreWhitespace {
		buf = appendWithoutWhitespace(buf, input)
	} else {
		buf = append(buf, input...)
	}

	return t.finalizeAligned(buf)
}

// finalizeAligned decodes every complete group of the assembled sequence
// into a fresh buffer, dropping the dangling tail.
func (t *base64Decoder) finalizeAligned(data []byte) ([]byte, error) {
	decodeLen := len(data) - len(data)%4
	if decodeLen == 0 {
		// The trailing characters never formed a complete group; tolerate
		// the truncated tail rather than failing the whole message.
		return nil, nil
	}

	result := make([]byte, decodeLen/4*3)

	n, err := t.decodeGroups(data[:decodeLen], result)
	if err != nil {
		return nil, err
	}

	if n == 0 {
		return nil, nil
	}

	return result[:n], nil
}

// decodeGroups batch-decodes a group-aligned sequence into output, returning
// the number of bytes produced. len(data) must be a multiple of 4.
func (t *base64Decoder) decodeGroups(data, output []byte) (int, error) {
	maxDecoded := len(data) / 4 * 3

	if err := validateOutput(output, maxDecoded); err != nil {
		return 0, err
	}

	// The stdlib codec silently skips CR and LF, which would let whitespace
	// shift group alignment unnoticed, so reject it explicitly here.
	if t.mode == PreserveWhitespace && containsWhitespace(data) {
		reportMalformedInput()

		return 0, errors.Wrap(ErrMalformedInput, "whitespace inside encoded group")
	}

	n, err := base64.StdEncoding.Decode(output, data)
	if err != nil {
		reportMalformedInput()

		return 0, errors.Wrap(ErrMalformedInput, err.Error())
	}

	if n > maxDecoded {
		return 0, errors.Wrapf(ErrCodecViolation, "decoder produced %v bytes from %v characters", n, len(data))
	}

	reportDecodedBytes(int64(n))

	return n, nil
}

func (t *base64Decoder) Close() error {
	if t.closed {
		return ErrClosed
	}

	// Do not leave encoded fragments behind.
	t.remainder = [3]byte{}
	t.nRemainder = 0
	t.closed = true

	return nil
}

func isWhitespace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}

func containsWhitespace(b []byte) bool {
	for _, c := range b {
		if isWhitespace(c) {
			return true
		}
	}

	return false
}

func appendWithoutWhitespace(dst, src []byte) []byte {
	for _, c := range src {
		if !isWhitespace(c) {
			dst = append(dst, c)
		}
	}

	return dst
}
