package hotreload

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/evan-idocoding/hotkit/rt/hot"
)

const (
	originFetch = "fetch"
	originStore = "store"
	originKafka = "kafka"
)

// Result describes one reload attempt that did not fail.
type Result struct {
	// Changed is false when the payload was identical to the last published one.
	Changed bool `json:"changed"`
	// Version is the Source version observed right after the attempt.
	Version hot.Version `json:"version"`
	Bytes   int         `json:"bytes"`
}

// Stats is a point-in-time view of a Reloader's counters.
type Stats struct {
	Name      string `json:"name,omitempty"`
	Published uint64 `json:"published"`
	Unchanged uint64 `json:"unchanged"`
	Failures  uint64 `json:"failures"`

	LastError string `json:"lastError,omitempty"`
	// LastPublishedAt is zero until the first publication.
	LastPublishedAt time.Time `json:"lastPublishedAt"`
}

// Reloader fetches, decodes and publishes payloads into a hot.Source.
//
// It is safe for concurrent use.
type Reloader[T any] struct {
	cfg    config
	src    *hot.Source[T]
	decode Decoder[T]

	sf singleflight.Group

	// mu serializes publication and guards lastSum/lastVer/hasSum.
	mu      sync.Mutex
	lastSum [sha256.Size]byte
	lastVer hot.Version
	hasSum  bool

	published atomic.Uint64
	unchanged atomic.Uint64
	failures  atomic.Uint64
	lastErr   atomic.Pointer[string]
	lastAt    atomic.Int64
}

// New creates a Reloader publishing into src.
func New[T any](src *hot.Source[T], decode Decoder[T], opts ...Option) (*Reloader[T], error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil Source", ErrInvalidConfig)
	}
	if decode == nil {
		return nil, fmt.Errorf("%w: nil Decoder", ErrInvalidConfig)
	}
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.store != nil && cfg.storeKey == "" {
		return nil, fmt.Errorf("%w: empty store key", ErrInvalidConfig)
	}
	return &Reloader[T]{cfg: cfg, src: src, decode: decode}, nil
}

// Source returns the Source r publishes into.
func (r *Reloader[T]) Source() *hot.Source[T] { return r.src }

// Reload fetches the payload and publishes it if it changed.
//
// Concurrent calls share a single in-flight fetch (and its result). The shared fetch
// does not inherit any caller's cancellation or deadline; it is bounded by
// WithFetchTimeout instead. A caller whose ctx ends first returns ctx.Err() while
// the fetch carries on for the others.
func (r *Reloader[T]) Reload(ctx context.Context) (Result, error) {
	if r.cfg.fetch == nil {
		return Result{}, fmt.Errorf("%w: no fetcher", ErrInvalidConfig)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	ch := r.sf.DoChan("reload", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.cfg.fetchTimeout)
		defer cancel()
		raw, err := r.fetch(fctx)
		if err != nil {
			r.fail(originFetch, err)
			return Result{}, err
		}
		return r.apply(raw, originFetch, true)
	})
	select {
	case <-ctx.Done():
		return Result{}, ctx.Err()
	case out := <-ch:
		res, _ := out.Val.(Result)
		return res, out.Err
	}
}

// Restore republishes the last persisted payload (see WithStore).
//
// It returns an error wrapping ErrNoSnapshot if nothing was persisted yet.
func (r *Reloader[T]) Restore(ctx context.Context) (Result, error) {
	if r.cfg.store == nil {
		return Result{}, fmt.Errorf("%w: no store", ErrInvalidConfig)
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	raw, err := r.cfg.store.Load(r.cfg.storeKey)
	if err != nil {
		return Result{}, err
	}
	return r.apply(raw, originStore, false)
}

// Run reloads immediately and then every interval until ctx is done.
//
// Failures are logged and counted; they never stop the loop. Run returns nil when
// ctx is done.
func (r *Reloader[T]) Run(ctx context.Context) error {
	if r.cfg.fetch == nil {
		return fmt.Errorf("%w: no fetcher", ErrInvalidConfig)
	}
	_, _ = r.Reload(ctx)

	t := time.NewTicker(r.cfg.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
			_, _ = r.Reload(ctx)
		}
	}
}

// Stats returns a point-in-time view of the counters.
func (r *Reloader[T]) Stats() Stats {
	st := Stats{
		Name:      r.cfg.name,
		Published: r.published.Load(),
		Unchanged: r.unchanged.Load(),
		Failures:  r.failures.Load(),
	}
	if p := r.lastErr.Load(); p != nil {
		st.LastError = *p
	}
	if ns := r.lastAt.Load(); ns != 0 {
		st.LastPublishedAt = time.Unix(0, ns)
	}
	return st
}

func (r *Reloader[T]) apply(raw []byte, origin string, persist bool) (Result, error) {
	sum := sha256.Sum256(raw)

	r.mu.Lock()
	defer r.mu.Unlock()

	// The payload is only "unchanged" while nobody else has published since; an
	// out-of-band Update must not shadow the fetched payload.
	if r.hasSum && sum == r.lastSum && r.src.Version() == r.lastVer {
		r.unchanged.Add(1)
		r.cfg.logger.Debug("hot reload: payload unchanged",
			slog.String("reloader", r.cfg.name),
			slog.String("origin", origin),
			slog.Int("bytes", len(raw)),
		)
		return Result{Version: r.src.Version(), Bytes: len(raw)}, nil
	}

	v, err := r.decodeSafe(raw)
	if err != nil {
		r.fail(origin, err)
		return Result{}, err
	}

	ver := r.src.Publish(v)
	r.lastSum, r.lastVer, r.hasSum = sum, ver, true
	r.published.Add(1)
	r.lastAt.Store(time.Now().UnixNano())

	if persist && r.cfg.store != nil {
		if err := r.cfg.store.Save(r.cfg.storeKey, raw); err != nil {
			// The value is live; only the last-known-good copy is behind.
			r.cfg.logger.Warn("hot reload: persist failed",
				slog.String("reloader", r.cfg.name),
				slog.String("key", r.cfg.storeKey),
				slog.Any("err", err),
			)
		}
	}

	r.cfg.logger.Info("hot reload: published",
		slog.String("reloader", r.cfg.name),
		slog.String("origin", origin),
		slog.Uint64("version", uint64(ver)),
		slog.Int("bytes", len(raw)),
	)
	return Result{Changed: true, Version: ver, Bytes: len(raw)}, nil
}

func (r *Reloader[T]) fetch(ctx context.Context) (raw []byte, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: fetcher: %v", ErrPanic, p)
		}
	}()
	raw, err = r.cfg.fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	return raw, nil
}

func (r *Reloader[T]) decodeSafe(raw []byte) (v T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: decoder: %v", ErrPanic, p)
		}
	}()
	v, err = r.decode(raw)
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return v, nil
}

func (r *Reloader[T]) fail(origin string, err error) {
	r.failures.Add(1)
	msg := err.Error()
	r.lastErr.Store(&msg)
	r.cfg.logger.Warn("hot reload: failed",
		slog.String("reloader", r.cfg.name),
		slog.String("origin", origin),
		slog.Any("err", err),
	)
}
