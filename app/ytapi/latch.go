package ytapi

// QuotaLatch records that the YouTube Data API reported an exhausted
// daily quota. It is tripped at most once per run and never cleared;
// every call site consults it before performing network I/O.
//
// The run is single-threaded, so no synchronization is needed, but the
// latch is still passed around explicitly rather than held as a
// package global so tests can inject their own.
type QuotaLatch struct {
	tripped bool
}

func NewQuotaLatch() *QuotaLatch {
	return &QuotaLatch{}
}

func (l *QuotaLatch) Trip() {
	l.tripped = true
}

func (l *QuotaLatch) Tripped() bool {
	return l.tripped
}
