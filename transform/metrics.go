package transform

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals,promlinter
var (
	metricEncodedChunkCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_base64_encoded_chunk_count",
		Help: "Number of chunks encoded to Base64",
	})

	metricEncodedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_base64_encoded_bytes",
		Help: "Number of raw bytes encoded to Base64",
	})

	metricDecodedChunkCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_base64_decoded_chunk_count",
		Help: "Number of chunks decoded from Base64",
	})

	metricDecodedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_base64_decoded_bytes",
		Help: "Number of raw bytes produced by the Base64 decoder",
	})

	metricMalformedInputCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_base64_malformed_input_count",
		Help: "Number of times the Base64 decoder rejected its input",
	})

	metricHashedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_hashed_bytes",
		Help: "Number of bytes fed to hash accumulators",
	})
)

func reportEncodedBytes(length int64) {
	metricEncodedChunkCount.Inc()
	metricEncodedBytes.Add(float64(length))
}

func reportDecodedBytes(length int64) {
	metricDecodedChunkCount.Inc()
	metricDecodedBytes.Add(float64(length))
}

func reportMalformedInput() {
	metricMalformedInputCount.Inc()
}

func reportHashedBytes(length int64) {
	metricHashedBytes.Add(float64(length))
}
