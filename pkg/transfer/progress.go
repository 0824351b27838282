package transfer

import (
	"io"
	"sync"
	"sync/atomic"

	// Packages
	uploader "github.com/mutablelogic/go-uploader"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// reporter forwards a percentage only when it exceeds the last one
// forwarded
type reporter struct {
	mu   sync.Mutex
	fn   uploader.ProgressFunc
	last int
}

// progressReader counts the bytes read from the source and reports the
// percentage of total
type progressReader struct {
	r       io.Reader
	total   int64
	written atomic.Int64
	cb      func(percent int)
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newReporter(fn uploader.ProgressFunc) *reporter {
	return &reporter{fn: fn, last: -1}
}

func newProgressReader(r io.Reader, total int64, cb func(percent int)) *progressReader {
	return &progressReader{r: r, total: total, cb: cb}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

func (r *reporter) report(percent int) {
	if r.fn == nil {
		return
	}
	percent = min(max(percent, 0), 100)

	r.mu.Lock()
	defer r.mu.Unlock()
	if percent <= r.last {
		return
	}
	r.last = percent
	r.fn(percent)
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.r.Read(p)
	if n > 0 {
		written := r.written.Add(int64(n))
		if r.total > 0 {
			r.cb(int((written*200 + r.total) / (2 * r.total)))
		}
	}
	return n, err
}
