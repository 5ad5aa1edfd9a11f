package bufpool

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals,promlinter
var (
	metricPooledLeaseCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_bufpool_pooled_lease_count",
		Help: "Number of buffers leased from pool segments",
	})

	metricHeapLeaseCount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_bufpool_heap_lease_count",
		Help: "Number of buffers that fell back to heap allocation",
	})

	metricLeasedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "blockform_bufpool_leased_bytes",
		Help: "Number of bytes handed out by the buffer pool",
	})
)

func reportPooledLease(length int64) {
	metricPooledLeaseCount.Inc()
	metricLeasedBytes.Add(float64(length))
}

func reportHeapLease(length int64) {
	metricHeapLeaseCount.Inc()
	metricLeasedBytes.Add(float64(length))
}
