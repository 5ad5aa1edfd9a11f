// Package bufpool manages leases of temporary short-term buffers.
package bufpool

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/blockform/blockform/internal/releasable"
)

const (
	maxLeaseAttempts   = 3
	leaseRetryTimeout  = 500 * time.Millisecond
	defaultSegmentSize = 1 << 20
	defaultMaxSegments = 8
)

// LeaseTrackingKind is the releasable item kind under which outstanding
// leases are registered when tracking is enabled.
const LeaseTrackingKind releasable.ItemKind = "bufpool-lease"

//nolint:gochecknoglobals
var lastTrackingID int64

type segment struct {
	nextUnallocated int32  // high water mark
	leasedBufCount  int32  // how many outstanding users of the segment there are
	data            []byte // the underlying buffer from which leases are carved
	pool            *Pool
}

// Buf is a leased slice of pool memory. Release must be called at the end of
// use to return the memory; contents are arbitrary on lease.
type Buf struct {
	nextUnallocated         int32
	previousNextUnallocated int32

	Data []byte

	trackingID int64
	segment    *segment // segment from which the data was leased
}

// IsPooled determines whether the data slice is part of a pool.
func (b *Buf) IsPooled() bool { return b.segment != nil }

// Release returns the slice back to the pool. Releasing twice is harmless.
func (b *Buf) Release() {
	if b.trackingID != 0 {
		releasable.Released(LeaseTrackingKind, b.trackingID)
		b.trackingID = 0
	}

	if b.segment == nil {
		b.Data = nil

		return
	}

	notify := false

	// best effort compare-and-swap, which will pop the buffer off the stack in its appropriate segment
	if atomic.CompareAndSwapInt32(&b.segment.nextUnallocated, b.nextUnallocated, b.previousNextUnallocated) {
		// popped from the stack in the segment
		notify = true
	}

	if atomic.AddInt32(&b.segment.leasedBufCount, -1) == 0 {
		// last outstanding Buf, we can reset 'next' to zero
		atomic.StoreInt32(&b.segment.nextUnallocated, 0)

		notify = true
	}

	if notify {
		// this segment just became free, notify other goroutines doing Lease()
		select {
		case b.segment.pool.segmentReleased <- struct{}{}: // notified
		default: // nobody is waiting
		}
	}

	b.Data = nil

	b.segment = nil
}

func (s *segment) lease(count int) (Buf, bool) {
	n := int32(count)

	for {
		// see if we have capacity in this segment
		v := atomic.LoadInt32(&s.nextUnallocated)
		if v+n > int32(len(s.data)) {
			// out of space in this segment
			return Buf{}, false
		}

		if atomic.CompareAndSwapInt32(&s.nextUnallocated, v, v+n) {
			atomic.AddInt32(&s.leasedBufCount, 1)

			return Buf{v + n, v, s.data[v : v+n : v+n], 0, s}, true
		}
	}
}

// Pool manages leases of short-term scratch buffers.
//
// Leased buffers are meant to be extremely short lived and are suitable for
// in-memory operations, such as group assembly and whitespace compaction,
// but not for I/O buffers held across blocking calls. Every lease must be
// released, otherwise the pool eventually degrades to heap allocation.
//
// The pool uses N segments, with each segment tracking its high water mark
// usage. A lease simply advances the high water mark within the first
// segment that has capacity and increments the per-segment refcount.
//
// On Buf.Release() the refcount is decremented and when it hits zero, the
// entire segment becomes instantly free. As an extra optimization, when
// Buf.Release() is called in LIFO order, it also lowers the high water mark
// making its memory available for immediate reuse.
//
// If no segment has available capacity, the pool waits a few times until
// memory becomes released and falls back to allocating from the heap.
type Pool struct {
	maxSegments     int
	segmentReleased chan struct{} // channel which is notified whenever any segment becomes available

	// this protects the slice, to be able to atomically replace it
	mu          sync.Mutex
	segmentSize int
	segments    []*segment
}

// NewPool creates a buffer pool, composed of N fixed-length segments of
// specified maximum size.
func NewPool(segmentSize, maxSegments int) *Pool {
	p := &Pool{
		segmentSize:     segmentSize,
		segmentReleased: make(chan struct{}),
		maxSegments:     maxSegments,
	}

	return p
}

func (p *Pool) currentSegments() []*segment {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.segments
}

// SetSegmentSize sets the segment size for future segments that will be created.
func (p *Pool) SetSegmentSize(maxSize int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.segmentSize = maxSize
}

// InitializeSegments initializes n segments up to the maximum number of segments.
func (p *Pool) InitializeSegments(n int) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	remaining := p.maxSegments - len(p.segments)
	if n > remaining {
		n = remaining
	}

	if n == 0 {
		return false
	}

	var newSegments []*segment

	newSegments = append(newSegments, p.segments...)

	for i := 0; i < n; i++ {
		newSegments = append(newSegments, &segment{
			data: make([]byte, p.segmentSize),
			pool: p,
		})
	}

	p.segments = newSegments

	return true
}

// Lease leases a buffer of at least n bytes.
func (p *Pool) Lease(n int) Buf {
	// requested more than the pool can cache, lease a throw-away buffer.
	if p == nil || n > p.segmentSize {
		reportHeapLease(int64(n))

		return track(Buf{0, 0, make([]byte, n), 0, nil})
	}

	for i := 0; i < maxLeaseAttempts; i++ {
		// try to lease
		for _, s := range p.currentSegments() {
			buf, ok := s.lease(n)
			if ok {
				reportPooledLease(int64(n))

				return track(buf)
			}
		}

		// add one more segment up to specified limit
		if p.InitializeSegments(1) {
			continue
		}

		// wait until some segment becomes free or some time passes, whichever comes first
		select {
		case <-p.segmentReleased:
		case <-time.After(leaseRetryTimeout):
		}
	}

	// fall back to heap allocation
	reportHeapLease(int64(n))

	return track(Buf{0, 0, make([]byte, n), 0, nil})
}

func track(b Buf) Buf {
	b.trackingID = atomic.AddInt64(&lastTrackingID, 1)
	releasable.Created(LeaseTrackingKind, b.trackingID)

	return b
}

//nolint:gochecknoglobals
var defaultPool = NewPool(defaultSegmentSize, defaultMaxSegments)

// Lease leases a buffer of at least n bytes from the shared default pool.
func Lease(n int) Buf {
	return defaultPool.Lease(n)
}
