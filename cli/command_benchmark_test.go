package cli_test

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandBenchmarkHashing(t *testing.T) {
	t.Parallel()

	stdout := runCLIExpectSuccess(t, nil, "benchmark", "hashing", "--repeat=1", "--block-size=1KB", "--print-options")

	require.Contains(t, stdout, "Throughput")
	require.Contains(t, stdout, "SHA256")
	require.Contains(t, stdout, "BLAKE3-256")
	require.Contains(t, stdout, ",   --hash=")
	require.Contains(t, stdout, "Fastest option for this machine is: --hash=")
}

func TestCommandBenchmarkCodec(t *testing.T) {
	t.Parallel()

	stdout := runCLIExpectSuccess(t, nil, "benchmark", "codec", "--repeat=1", "--block-size=1KB", "--parallel=2")

	require.Contains(t, stdout, "Throughput")
	require.Contains(t, stdout, "BASE64-ENCODE")
	require.Contains(t, stdout, "BASE64-DECODE")
	require.Contains(t, stdout, "PASSTHROUGH")
}

func TestCommandBenchmarkCipher(t *testing.T) {
	t.Parallel()

	stdout := runCLIExpectSuccess(t, nil, "benchmark", "cipher", "--repeat=1", "--block-size=1KB")

	require.Contains(t, stdout, "Throughput")
	require.Contains(t, stdout, "AES256-CTR")
	require.Contains(t, stdout, "CHACHA20")
}
