// Package pipe drives streaming transforms from readers and writers: it
// feeds arbitrary-sized stream data through a transform in block-aligned
// chunks and finalizes the transform exactly once at end of stream.
package pipe

import (
	"context"
	"io"

	"github.com/pkg/errors"

	"github.com/blockform/blockform/internal/bufpool"
	"github.com/blockform/blockform/logging"
	"github.com/blockform/blockform/transform"
)

var log = logging.Module("blockform/pipe")

// chunkSize is the size of stream reads. Scratch buffers are leased from the
// buffer pool, so the value must stay well below the pool segment size.
const chunkSize = 65536

// outputSizeFor returns the worst-case output size for n input bytes under
// the declared block ratio.
func outputSizeFor(n, inputBlockSize, outputBlockSize int) int {
	blocks := (n + inputBlockSize - 1) / inputBlockSize

	return blocks * outputBlockSize
}

// stagingSize returns the read staging size, which must hold at least one
// input block.
func stagingSize(inputBlockSize int) int {
	if inputBlockSize > chunkSize {
		return inputBlockSize
	}

	return chunkSize
}

// Copy streams src through t into dst and returns the number of bytes
// written. Every mid-stream call feeds whole input blocks; the unaligned
// tail of each read is carried into the next one. At end of stream the
// transform is finalized exactly once. The transform is not closed.
func Copy(ctx context.Context, dst io.Writer, src io.Reader, t transform.Transform) (int64, error) {
	ibs := t.InputBlockSize()
	obs := t.OutputBlockSize()

	in := bufpool.Lease(stagingSize(ibs))
	defer in.Release()

	out := bufpool.Lease(outputSizeFor(len(in.Data), ibs, obs))
	defer out.Release()

	var (
		written int64
		pending int
	)

	for {
		n, err := src.Read(in.Data[pending:])
		pending += n

		if err != nil && !errors.Is(err, io.EOF) {
			return written, errors.Wrap(err, "error reading")
		}

		if errors.Is(err, io.EOF) {
			final, ferr := t.Finalize(in.Data[:pending])
			if ferr != nil {
				return written, errors.Wrap(ferr, "error finalizing transform")
			}

			if len(final) > 0 {
				if _, werr := dst.Write(final); werr != nil {
					return written, errors.Wrap(werr, "error writing final output")
				}

				written += int64(len(final))
			}

			log(ctx).Debugf("copied %v bytes", written)

			return written, nil
		}

		for pending >= ibs {
			feed := pending - pending%ibs
			if !t.SupportsMultipleBlocks() {
				feed = ibs
			}

			produced, perr := t.ProcessChunk(in.Data[:feed], out.Data)
			if perr != nil {
				return written, errors.Wrap(perr, "error processing chunk")
			}

			if produced > 0 {
				if _, werr := dst.Write(out.Data[:produced]); werr != nil {
					return written, errors.Wrap(werr, "error writing")
				}

				written += int64(produced)
			}

			copy(in.Data, in.Data[feed:pending])
			pending -= feed
		}
	}
}
