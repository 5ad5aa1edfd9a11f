package pipe

import (
	"io"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/internal/bufpool"
	"github.com/blockform/blockform/transform"
)

type transformReader struct {
	r io.Reader
	t transform.Transform

	in        bufpool.Buf
	out       bufpool.Buf
	pending   int // unprocessed bytes at the start of in
	outPos    int
	outLen    int
	final     []byte
	finalized bool
	err       error
	closed    bool
}

// NewReader returns a reader producing the transformed bytes of r. The
// transform is finalized when r is exhausted; it is not closed by Close.
func NewReader(r io.Reader, t transform.Transform) io.ReadCloser {
	in := bufpool.Lease(stagingSize(t.InputBlockSize()))

	return &transformReader{
		r:   r,
		t:   t,
		in:  in,
		out: bufpool.Lease(outputSizeFor(len(in.Data), t.InputBlockSize(), t.OutputBlockSize())),
	}
}

func (r *transformReader) Read(p []byte) (int, error) {
	if r.closed {
		return 0, errors.New("reader is closed")
	}

	for {
		if r.outPos < r.outLen {
			n := copy(p, r.out.Data[r.outPos:r.outLen])
			r.outPos += n

			return n, nil
		}

		if len(r.final) > 0 {
			n := copy(p, r.final)
			r.final = r.final[n:]

			return n, nil
		}

		if r.err != nil {
			return 0, r.err
		}

		if r.finalized {
			return 0, io.EOF
		}

		if err := r.fill(); err != nil {
			r.err = err

			return 0, err
		}
	}
}

// fill reads more stream data and runs it through the transform, leaving
// produced bytes in the output staging buffer or, at end of stream, in the
// finalization output.
func (r *transformReader) fill() error {
	ibs := r.t.InputBlockSize()

	n, err := r.r.Read(r.in.Data[r.pending:])
	r.pending += n

	if err != nil && !errors.Is(err, io.EOF) {
		return errors.Wrap(err, "error reading")
	}

	if errors.Is(err, io.EOF) {
		final, ferr := r.t.Finalize(r.in.Data[:r.pending])
		if ferr != nil {
			return errors.Wrap(ferr, "error finalizing transform")
		}

		r.pending = 0
		r.final = final
		r.finalized = true

		return nil
	}

	if r.pending < ibs {
		return nil
	}

	feed := r.pending - r.pending%ibs
	if !r.t.SupportsMultipleBlocks() {
		feed = ibs
	}

	produced, perr := r.t.ProcessChunk(r.in.Data[:feed], r.out.Data)
	if perr != nil {
		return errors.Wrap(perr, "error processing chunk")
	}

	copy(r.in.Data, r.in.Data[feed:r.pending])
	r.pending -= feed

	r.outPos = 0
	r.outLen = produced

	return nil
}

// Close releases the staging buffers. The wrapped transform is left open.
func (r *transformReader) Close() error {
	if r.closed {
		return errors.New("already closed")
	}

	r.closed = true
	r.in.Release()
	r.out.Release()

	return nil
}
