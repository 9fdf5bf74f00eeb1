package queue

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultWorkers = 2
	channelBuffer  = 64
	defaultTimeout = 5 * time.Second
)

// Revoker invalidates a session token on the master server.
type Revoker interface {
	Logout(ctx context.Context, token string) error
}

// Dispatcher delivers logout revocations in the background. Tokens are sharded
// onto a fixed set of workers by hash, so revocations of one token are
// delivered in order. Enqueue never waits on the network.
type Dispatcher struct {
	workers []chan string
	revoker Revoker
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.RWMutex
	stopped bool
	wg      sync.WaitGroup
}

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used. Each revocation is bounded by
// timeout (defaultTimeout when <= 0).
func NewDispatcher(numWorkers int, revoker Revoker, timeout time.Duration, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	d := &Dispatcher{
		workers: make([]chan string, numWorkers),
		revoker: revoker,
		timeout: timeout,
		log:     log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan string, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers exit when ctx is cancelled or
// when Stop has drained their channel.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		d.wg.Add(1)
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue implements ports.LogoutQueue. It never blocks: tokens enqueued after
// Stop, or while the worker's buffer is full, are dropped.
func (d *Dispatcher) Enqueue(token string) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.stopped {
		d.log.Warn().Msg("revocation dropped, dispatcher stopped")
		return
	}
	idx := d.shardIndex(token)
	select {
	case d.workers[idx] <- token:
	default:
		d.log.Warn().Int("worker_id", idx).Msg("revocation dropped, worker queue full")
	}
}

// Stop closes the worker channels and waits for pending revocations.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	for _, ch := range d.workers {
		close(ch)
	}
	d.mu.Unlock()
	d.wg.Wait()
}

// shardIndex maps a token deterministically to a worker index.
func (d *Dispatcher) shardIndex(token string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan string) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case token, ok := <-ch:
			if !ok {
				return
			}
			d.revoke(ctx, id, token)
		}
	}
}

func (d *Dispatcher) revoke(ctx context.Context, id int, token string) {
	rctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := d.revoker.Logout(rctx, token); err != nil {
		d.log.Warn().Err(err).
			Int("worker_id", id).
			Msg("token revocation failed")
		return
	}
	d.log.Debug().Int("worker_id", id).Msg("token revoked")
}
