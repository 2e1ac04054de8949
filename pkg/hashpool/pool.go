// Package hashpool hashes files on a fixed set of worker goroutines.
//
// The pool is driven by one coordinator goroutine: Submit, Poll and Wait must all be
// called from it, and callbacks run on it. Jobs are dispatched round-robin and every
// worker answers in the order it was fed, so responses are matched to callbacks
// through a per-worker FIFO without request ids.
package hashpool

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/autobrr/lndup/pkg/digest"
	"github.com/autobrr/lndup/pkg/logger"
)

const (
	jobBuffer    = 64
	resultBuffer = 256
)

// ErrHashFailed is reported when a worker returned the failure sentinel without an error.
var ErrHashFailed = errors.New("hash failed")

// Callback receives the digest of a submitted path, or digest.Zero and the error.
type Callback func(d digest.Digest, err error)

type response struct {
	worker int
	digest digest.Digest
	err    error
}

type worker struct {
	id      int
	jobs    chan string
	pending []Callback
}

type Pool struct {
	log      *logrus.Entry
	fs       afero.Fs
	workers  []*worker
	results  chan response
	next     int
	inflight int
	wg       sync.WaitGroup
	closed   bool
}

// New starts size workers, or one per CPU when size < 1.
func New(fs afero.Fs, size int) *Pool {
	if size < 1 {
		size = runtime.NumCPU()
	}

	p := &Pool{
		log:     logger.GetLogger("hashpool"),
		fs:      fs,
		workers: make([]*worker, size),
		results: make(chan response, resultBuffer),
	}

	for i := range p.workers {
		w := &worker{id: i, jobs: make(chan string, jobBuffer)}
		p.workers[i] = w

		p.wg.Add(1)
		go p.run(w)
	}

	p.log.Debugf("Started %d hash workers", size)
	return p
}

func (p *Pool) run(w *worker) {
	defer p.wg.Done()

	h := digest.NewHasher(p.fs)
	for path := range w.jobs {
		d, err := h.File(path)
		if err != nil {
			d = digest.Zero
		}
		p.results <- response{worker: w.id, digest: d, err: err}
	}
}

func (p *Pool) Size() int {
	return len(p.workers)
}

// Inflight is the number of submitted paths whose callback has not run yet.
func (p *Pool) Inflight() int {
	return p.inflight
}

// Submit queues path on the next worker. While the worker's queue is full,
// finished responses are delivered so the workers never stall on the coordinator.
func (p *Pool) Submit(path string, cb Callback) {
	if p.closed {
		cb(digest.Zero, errors.Errorf("hash pool closed, cannot hash %s", path))
		return
	}

	w := p.workers[p.next]
	p.next = (p.next + 1) % len(p.workers)

	w.pending = append(w.pending, cb)
	p.inflight++

	for {
		select {
		case w.jobs <- path:
			return
		case r := <-p.results:
			p.deliver(r)
		}
	}
}

// Poll delivers every response that is already available without blocking.
func (p *Pool) Poll() {
	for {
		select {
		case r := <-p.results:
			p.deliver(r)
		default:
			return
		}
	}
}

// Wait blocks until every submitted path got its callback.
func (p *Pool) Wait() {
	for p.inflight > 0 {
		p.deliver(<-p.results)
	}
}

// Close waits for outstanding work, then stops the workers.
func (p *Pool) Close() {
	if p.closed {
		return
	}

	p.Wait()
	p.closed = true

	for _, w := range p.workers {
		close(w.jobs)
	}
	p.wg.Wait()

	p.log.Debug("Stopped hash workers")
}

func (p *Pool) deliver(r response) {
	w := p.workers[r.worker]
	if len(w.pending) == 0 {
		p.log.Errorf("Dropping unexpected response from worker %d", r.worker)
		return
	}

	cb := w.pending[0]
	w.pending[0] = nil
	w.pending = w.pending[1:]
	p.inflight--

	err := r.err
	if err == nil && r.digest.IsZero() {
		err = ErrHashFailed
	}
	cb(r.digest, err)
}
