// Package transform implements streaming block transforms - units that
// consume input in arbitrary-sized chunks and produce output incrementally,
// with an explicit finalization step once per message.
package transform

import (
	"github.com/pkg/errors"
)

// Transform converts a stream of bytes fed in chunks into a stream of
// output bytes. A transform instance is not safe for concurrent use.
type Transform interface {
	// InputBlockSize returns the natural input granularity of the algorithm.
	// Always >= 1.
	InputBlockSize() int

	// OutputBlockSize returns the number of output bytes corresponding to
	// one input block. Always >= 1.
	OutputBlockSize() int

	// CanReuse determines whether the instance accepts a new message after
	// Finalize.
	CanReuse() bool

	// SupportsMultipleBlocks determines whether a single call may carry more
	// than one input block.
	SupportsMultipleBlocks() bool

	// ProcessChunk consumes all of input and writes any produced bytes at
	// the start of output, returning the number of bytes made available.
	// Transforms that only observe bytes accept a nil output; all others
	// require len(output) to cover the worst-case production for the chunk
	// and fail with ErrInvalidArgument before touching any state otherwise.
	ProcessChunk(input, output []byte) (int, error)

	// Finalize consumes the remaining input, flushes any carried state and
	// returns a freshly allocated final output segment (nil when empty).
	// Must be called exactly once per message. When CanReuse is true the
	// instance is fully reset and accepts a new message afterwards.
	Finalize(input []byte) ([]byte, error)

	// Close releases the instance. Every operation on a closed transform,
	// including another Close, fails with ErrClosed.
	Close() error
}

var (
	// ErrInvalidArgument is returned when an output buffer is missing or too
	// short for the bytes a call would produce. No state is mutated.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrMalformedInput is returned when a complete Base64 group cannot be
	// decoded. The transform state remains consistent, so the caller may
	// abort the message without invalidating previously emitted output.
	ErrMalformedInput = errors.New("malformed input")

	// ErrClosed is returned by any operation on a closed transform.
	ErrClosed = errors.New("transform is closed")

	// ErrAlreadyFinalized is returned when a non-reusable transform is used
	// after Finalize.
	ErrAlreadyFinalized = errors.New("transform already finalized")

	// ErrDigestNotReady is returned when reading a digest before Finalize or
	// after new input has been processed since the last Finalize.
	ErrDigestNotReady = errors.New("digest not ready")

	// ErrCodecViolation indicates an internal consistency failure in the
	// underlying codec. It is a defect, not a data error, and is propagated
	// rather than masked.
	ErrCodecViolation = errors.New("codec invariant violation")
)

// blockInfo carries the static block-granularity contract of a transform.
type blockInfo struct {
	inputBlockSize  int
	outputBlockSize int
	canReuse        bool
	multiBlock      bool
}

func (i blockInfo) InputBlockSize() int          { return i.inputBlockSize }
func (i blockInfo) OutputBlockSize() int         { return i.outputBlockSize }
func (i blockInfo) CanReuse() bool               { return i.canReuse }
func (i blockInfo) SupportsMultipleBlocks() bool { return i.multiBlock }

// validateOutput ensures the output buffer can hold 'need' produced bytes.
func validateOutput(output []byte, need int) error {
	if need == 0 {
		return nil
	}

	if output == nil {
		return errors.Wrap(ErrInvalidArgument, "nil output buffer")
	}

	if len(output) < need {
		return errors.Wrapf(ErrInvalidArgument, "output buffer too short: %v, need %v", len(output), need)
	}

	return nil
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}

	return append([]byte{}, b...)
}
