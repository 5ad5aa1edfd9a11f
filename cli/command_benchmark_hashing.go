package cli

import (
	"context"
	"sort"

	atunits "github.com/alecthomas/units"

	"github.com/blockform/blockform/hashing"
	"github.com/blockform/blockform/internal/timetrack"
	"github.com/blockform/blockform/internal/units"
)

type commandBenchmarkHashing struct {
	blockSize   atunits.Base2Bytes
	repeat      int
	optionPrint bool
	parallel    int

	out textOutput
}

func (c *commandBenchmarkHashing) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("hashing", "Run hash accumulator benchmarks").Alias("hash")
	cmd.Flag("block-size", "Size of a block to hash").Default("1MB").BytesVar(&c.blockSize)
	cmd.Flag("repeat", "Number of repetitions").Default("100").IntVar(&c.repeat)
	cmd.Flag("parallel", "Number of parallel goroutines").Default("1").IntVar(&c.parallel)
	cmd.Flag("print-options", "Print out options usable for the digest command").BoolVar(&c.optionPrint)
	cmd.Action(svc.baseActionWithContext(c.run))
	c.out.setup(svc)
}

func (c *commandBenchmarkHashing) run(ctx context.Context) error {
	results := c.runBenchmark(ctx)

	sort.Slice(results, func(i, j int) bool {
		return results[i].throughput > results[j].throughput
	})
	c.out.printStdout("     %-20v %v\n", "Hash", "Throughput")
	c.out.printStdout("-----------------------------------------------------------------\n")

	for ndx, r := range results {
		c.out.printStdout("%3d. %-20v %v / second", ndx, r.name, units.BytesString(r.throughput))

		if c.optionPrint {
			c.out.printStdout(",   --hash=%s", r.name)
		}

		c.out.printStdout("\n")
	}

	c.out.printStdout("-----------------------------------------------------------------\n")
	c.out.printStdout("Fastest option for this machine is: --hash=%s\n", results[0].name)

	return nil
}

func (c *commandBenchmarkHashing) runBenchmark(ctx context.Context) []benchResult {
	var results []benchResult

	data := make([]byte, c.blockSize)

	for _, ha := range hashing.SupportedAlgorithms() {
		if _, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: ha}); err != nil {
			continue
		}

		log(ctx).Infof("Benchmarking hash '%v' (%v x %v bytes, parallelism %v)", ha, c.repeat, len(data), c.parallel)

		tt := timetrack.Start()

		hashCount := c.repeat

		runInParallelNoResult(c.parallel, func() {
			acc, err := hashing.CreateAccumulator(&hashing.Options{Algorithm: ha})
			if err != nil {
				return
			}

			for range hashCount {
				acc.Append(data)
				acc.FinalizeAndReset()
			}
		})

		_, bytesPerSecond := tt.Completed(float64(c.parallel) * float64(len(data)) * float64(hashCount))

		results = append(results, benchResult{name: ha, throughput: bytesPerSecond})
	}

	return results
}
