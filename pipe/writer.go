package pipe

import (
	"io"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/internal/bufpool"
	"github.com/blockform/blockform/transform"
)

type transformWriter struct {
	w io.Writer
	t transform.Transform

	carry   bufpool.Buf // partial input block carried between writes
	out     bufpool.Buf
	pending int
	slab    int // largest aligned span fed in one call
	closed  bool
}

// NewWriter returns a writer that transforms everything written to it and
// forwards the output to w. Close finalizes the transform exactly once and
// flushes the final output; it does not close the transform or w.
func NewWriter(w io.Writer, t transform.Transform) io.WriteCloser {
	ibs := t.InputBlockSize()

	slab := chunkSize - chunkSize%ibs
	if slab == 0 {
		slab = ibs
	}

	return &transformWriter{
		w:     w,
		t:     t,
		carry: bufpool.Lease(ibs),
		out:   bufpool.Lease(outputSizeFor(slab, ibs, t.OutputBlockSize())),
		slab:  slab,
	}
}

func (w *transformWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, errors.New("writer is closed")
	}

	ibs := w.t.InputBlockSize()
	total := len(p)

	// Top up a previously carried partial block first.
	if w.pending > 0 {
		n := copy(w.carry.Data[w.pending:ibs], p)
		w.pending += n
		p = p[n:]

		if w.pending < ibs {
			return total, nil
		}

		if err := w.processAndForward(w.carry.Data[:ibs]); err != nil {
			return total - len(p), err
		}

		w.pending = 0
	}

	aligned := len(p) - len(p)%ibs
	if aligned > 0 {
		if err := w.processAndForward(p[:aligned]); err != nil {
			return total - len(p), err
		}
	}

	w.pending = copy(w.carry.Data[:ibs], p[aligned:])

	return total, nil
}

// processAndForward feeds a block-aligned span through the transform in
// slab-sized pieces and forwards the produced bytes.
func (w *transformWriter) processAndForward(b []byte) error {
	for len(b) > 0 {
		feed := min(len(b), w.slab)
		if !w.t.SupportsMultipleBlocks() {
			feed = w.t.InputBlockSize()
		}

		produced, err := w.t.ProcessChunk(b[:feed], w.out.Data)
		if err != nil {
			return errors.Wrap(err, "error processing chunk")
		}

		if produced > 0 {
			if _, werr := w.w.Write(w.out.Data[:produced]); werr != nil {
				return errors.Wrap(werr, "error writing")
			}
		}

		b = b[feed:]
	}

	return nil
}

// Close finalizes the transform with the carried tail and flushes the final
// output.
func (w *transformWriter) Close() error {
	if w.closed {
		return errors.New("already closed")
	}

	w.closed = true

	defer w.carry.Release()
	defer w.out.Release()

	final, err := w.t.Finalize(w.carry.Data[:w.pending])
	if err != nil {
		return errors.Wrap(err, "error finalizing transform")
	}

	if len(final) > 0 {
		if _, werr := w.w.Write(final); werr != nil {
			return errors.Wrap(werr, "error writing final output")
		}
	}

	return nil
}
