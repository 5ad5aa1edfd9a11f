package cli

import (
	"context"
	"encoding/base64"
	"sort"

	atunits "github.com/alecthomas/units"

	"github.com/blockform/blockform/internal/timetrack"
	"github.com/blockform/blockform/internal/units"
	"github.com/blockform/blockform/transform"
)

type commandBenchmarkCodec struct {
	blockSize atunits.Base2Bytes
	repeat    int
	parallel  int

	out textOutput
}

func (c *commandBenchmarkCodec) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("codec", "Run registered codec benchmarks")
	cmd.Flag("block-size", "Size of a block to transform").Default("1MB").BytesVar(&c.blockSize)
	cmd.Flag("repeat", "Number of repetitions").Default("100").IntVar(&c.repeat)
	cmd.Flag("parallel", "Number of parallel goroutines").Default("1").IntVar(&c.parallel)
	cmd.Action(svc.baseActionWithContext(c.run))
	c.out.setup(svc)
}

func (c *commandBenchmarkCodec) run(ctx context.Context) error {
	results := c.runBenchmark(ctx)

	sort.Slice(results, func(i, j int) bool {
		return results[i].throughput > results[j].throughput
	})
	c.out.printStdout("     %-16v %v\n", "Codec", "Throughput")
	c.out.printStdout("-----------------------------------------------------------------\n")

	for ndx, r := range results {
		c.out.printStdout("%3d. %-16v %v / second\n", ndx, r.name, units.BytesString(r.throughput))
	}

	c.out.printStdout("-----------------------------------------------------------------\n")

	return nil
}

func (c *commandBenchmarkCodec) runBenchmark(ctx context.Context) []benchResult {
	var results []benchResult

	data := make([]byte, c.blockSize)

	for _, name := range transform.SupportedCodecs() {
		input := data

		// decoders are fed encoded text so every chunk decodes cleanly.
		if name == transform.Base64DecodeCodec {
			input = make([]byte, base64.StdEncoding.EncodedLen(len(data)))
			base64.StdEncoding.Encode(input, data)
		}

		log(ctx).Infof("Benchmarking codec '%v' (%v x %v bytes, parallelism %v)", name, c.repeat, len(input), c.parallel)

		tt := timetrack.Start()

		repeat := c.repeat

		runInParallelNoResult(c.parallel, func() {
			t, err := transform.NewCodec(name)
			if err != nil {
				return
			}

			defer t.Close() //nolint:errcheck

			// worst-case output for a padded tail block.
			blocks := (len(input) + t.InputBlockSize() - 1) / t.InputBlockSize()
			output := make([]byte, blocks*t.OutputBlockSize())

			for range repeat {
				if _, perr := t.ProcessChunk(input, output); perr != nil {
					log(ctx).Errorf("error processing chunk: %v", perr)
					return
				}

				if _, ferr := t.Finalize(nil); ferr != nil {
					log(ctx).Errorf("error finalizing: %v", ferr)
					return
				}
			}
		})

		_, bytesPerSecond := tt.Completed(float64(c.parallel) * float64(len(input)) * float64(repeat))

		results = append(results, benchResult{name: string(name), throughput: bytesPerSecond})
	}

	return results
}
