package cli

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"sort"

	atunits "github.com/alecthomas/units"
	"github.com/pkg/errors"
	"golang.org/x/crypto/chacha20"

	"github.com/blockform/blockform/internal/timetrack"
	"github.com/blockform/blockform/internal/units"
	"github.com/blockform/blockform/transform"
)

const benchmarkCipherKeySize = 32

//nolint:gochecknoglobals
var benchmarkStreamCiphers = []struct {
	name      string
	newStream func(key, iv []byte) (cipher.Stream, error)
}{
	{"AES256-CTR", func(key, iv []byte) (cipher.Stream, error) {
		b, err := aes.NewCipher(key)
		if err != nil {
			return nil, errors.Wrap(err, "unable to create AES cipher")
		}

		return cipher.NewCTR(b, iv), nil
	}},
	{"CHACHA20", func(key, iv []byte) (cipher.Stream, error) {
		s, err := chacha20.NewUnauthenticatedCipher(key, iv[:chacha20.NonceSize])
		if err != nil {
			return nil, errors.Wrap(err, "unable to create chacha20 cipher")
		}

		return s, nil
	}},
}

type commandBenchmarkCipher struct {
	blockSize atunits.Base2Bytes
	repeat    int
	parallel  int

	out textOutput
}

func (c *commandBenchmarkCipher) setup(svc appServices, parent commandParent) {
	cmd := parent.Command("cipher", "Run stream cipher benchmarks")
	cmd.Flag("block-size", "Size of a block to encrypt").Default("1MB").BytesVar(&c.blockSize)
	cmd.Flag("repeat", "Number of repetitions").Default("100").IntVar(&c.repeat)
	cmd.Flag("parallel", "Number of parallel goroutines").Default("1").IntVar(&c.parallel)
	cmd.Action(svc.baseActionWithContext(c.run))
	c.out.setup(svc)
}

func (c *commandBenchmarkCipher) run(ctx context.Context) error {
	results := c.runBenchmark(ctx)

	sort.Slice(results, func(i, j int) bool {
		return results[i].throughput > results[j].throughput
	})
	c.out.printStdout("     %-16v %v\n", "Cipher", "Throughput")
	c.out.printStdout("-----------------------------------------------------------------\n")

	for ndx, r := range results {
		c.out.printStdout("%3d. %-16v %v / second\n", ndx, r.name, units.BytesString(r.throughput))
	}

	c.out.printStdout("-----------------------------------------------------------------\n")

	return nil
}

func (c *commandBenchmarkCipher) runBenchmark(ctx context.Context) []benchResult {
	var results []benchResult

	data := make([]byte, c.blockSize)

	for _, bc := range benchmarkStreamCiphers {
		log(ctx).Infof("Benchmarking cipher '%v' (%v x %v bytes, parallelism %v)", bc.name, c.repeat, len(data), c.parallel)

		tt := timetrack.Start()

		repeat := c.repeat

		runInParallelNoResult(c.parallel, func() {
			var (
				key [benchmarkCipherKeySize]byte
				iv  [aes.BlockSize]byte
			)

			stream, err := bc.newStream(key[:], iv[:])
			if err != nil {
				return
			}

			t := transform.NewCipherStream(stream)
			defer t.Close() //nolint:errcheck

			output := make([]byte, len(data))

			for range repeat {
				if _, perr := t.ProcessChunk(data, output); perr != nil {
					log(ctx).Errorf("error processing chunk: %v", perr)
					return
				}
			}
		})

		_, bytesPerSecond := tt.Completed(float64(c.parallel) * float64(len(data)) * float64(repeat))

		results = append(results, benchResult{name: bc.name, throughput: bytesPerSecond})
	}

	return results
}
