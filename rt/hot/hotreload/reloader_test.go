package hotreload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evan-idocoding/hotkit/rt/hot"
)

type routeTable struct {
	Default string            `json:"default" yaml:"default"`
	Routes  map[string]string `json:"routes" yaml:"routes"`
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New[int](nil, JSONDecoder[int]())
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(hot.NewSource(1), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = New(hot.NewSource(1), JSONDecoder[int](), WithStore(&memStore{}, ""))
	assert.ErrorIs(t, err, ErrInvalidConfig)

	r, err := New(hot.NewSource(1), JSONDecoder[int]())
	require.NoError(t, err)
	_, err = r.Reload(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.ErrorIs(t, r.Run(context.Background()), ErrInvalidConfig)
	_, err = r.Restore(context.Background())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestReload_FilePublishesAndSkipsUnchanged(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	writeFile(t, path, "default: a\nroutes:\n  /x: b\n")

	src := hot.NewSource(routeTable{Default: "boot"})
	h := src.Get()
	r, err := New(src, YAMLDecoder[routeTable](),
		WithName("routes"),
		WithFetcher(FileFetcher(path)),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	res, err := r.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, hot.Version(1), res.Version)
	assert.True(t, h.IsExpired())
	assert.Equal(t, "a", h.GetSync().Default)
	assert.Equal(t, "b", h.Get().Routes["/x"])

	res, err = r.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, hot.Version(1), src.Version())
	assert.False(t, h.IsExpired())

	writeFile(t, path, "default: c\n")
	res, err = r.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "c", src.Load().Default)

	st := r.Stats()
	assert.Equal(t, "routes", st.Name)
	assert.Equal(t, uint64(2), st.Published)
	assert.Equal(t, uint64(1), st.Unchanged)
	assert.Zero(t, st.Failures)
	assert.False(t, st.LastPublishedAt.IsZero())
}

func TestReload_FailuresKeepPreviousValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.json")
	writeFile(t, path, `{"default":"a"}`)

	src := hot.NewSource(routeTable{})
	r, err := New(src, JSONDecoder[routeTable](), WithFetcher(FileFetcher(path)), WithLogger(quietLogger()))
	require.NoError(t, err)
	_, err = r.Reload(context.Background())
	require.NoError(t, err)

	writeFile(t, path, `{"default":`)
	_, err = r.Reload(context.Background())
	assert.ErrorIs(t, err, ErrDecode)
	assert.Equal(t, "a", src.Load().Default)
	assert.Equal(t, hot.Version(1), src.Version())

	require.NoError(t, os.Remove(path))
	_, err = r.Reload(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, os.ErrNotExist)

	st := r.Stats()
	assert.Equal(t, uint64(2), st.Failures)
	assert.NotEmpty(t, st.LastError)
}

func TestReload_RepublishesAfterOutOfBandUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "banner.json")
	writeFile(t, path, `"from-file"`)

	src := hot.NewSource("boot")
	r, err := New(src, JSONDecoder[string](), WithFetcher(FileFetcher(path)), WithLogger(quietLogger()))
	require.NoError(t, err)

	_, err = r.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, "from-file", src.Load())

	// An operator write (e.g. through a Registry) lands between two reloads of the same file.
	src.Update("set-by-operator")

	res, err := r.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, hot.Version(3), res.Version)
	assert.Equal(t, "from-file", src.Load())

	// Nothing else published since: the same file is unchanged again.
	res, err = r.Reload(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, hot.Version(3), src.Version())
}

func TestReload_CanceledCallerDoesNotFailOthers(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(ctx context.Context) ([]byte, error) {
		calls.Add(1)
		select {
		case <-release:
			return []byte("7"), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	src := hot.NewSource(0)
	r, err := New(src, JSONDecoder[int](), WithFetcher(fetch), WithLogger(quietLogger()))
	require.NoError(t, err)

	ctxA, cancelA := context.WithCancel(context.Background())
	defer cancelA()
	errA := make(chan error, 1)
	go func() {
		_, err := r.Reload(ctxA)
		errA <- err
	}()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)

	errB := make(chan error, 1)
	go func() {
		_, err := r.Reload(context.Background())
		errB <- err
	}()

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("canceled caller did not return")
	}

	close(release)
	select {
	case err := <-errB:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not return")
	}
	assert.Equal(t, 7, src.Load())
	assert.Equal(t, hot.Version(1), src.Version())
}

func TestReload_FetchTimeout(t *testing.T) {
	fetch := func(ctx context.Context) ([]byte, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	src := hot.NewSource(0)
	r, err := New(src, JSONDecoder[int](),
		WithFetcher(fetch),
		WithFetchTimeout(10*time.Millisecond),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	_, err = r.Reload(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, uint64(1), r.Stats().Failures)
}

func TestReload_PanicsRecovered(t *testing.T) {
	src := hot.NewSource(0)
	boom := func([]byte) (int, error) { panic("decoder boom") }
	r, err := New(src, boom,
		WithFetcher(func(context.Context) ([]byte, error) { return []byte("1"), nil }),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	_, err = r.Reload(context.Background())
	assert.ErrorIs(t, err, ErrPanic)

	r2, err := New(src, JSONDecoder[int](),
		WithFetcher(func(context.Context) ([]byte, error) { panic("fetcher boom") }),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	_, err = r2.Reload(context.Background())
	assert.ErrorIs(t, err, ErrPanic)
	assert.Equal(t, hot.Version(0), src.Version())
}

func TestReload_ConcurrentCallersPublishOnce(t *testing.T) {
	var calls atomic.Int64
	release := make(chan struct{})
	fetch := func(context.Context) ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte(`{"default":"x"}`), nil
	}
	src := hot.NewSource(routeTable{})
	r, err := New(src, JSONDecoder[routeTable](), WithFetcher(fetch), WithLogger(quietLogger()))
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Reload(context.Background())
		}(i)
	}
	require.Eventually(t, func() bool { return calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// Whether callers joined the flight or fetched again, identical payloads publish once.
	assert.Equal(t, hot.Version(1), src.Version())
	assert.Equal(t, uint64(1), r.Stats().Published)
}

func TestRun_ReloadsUntilCanceled(t *testing.T) {
	var n atomic.Int64
	fetch := func(context.Context) ([]byte, error) {
		return []byte(`{"default":"v` + strconv.FormatInt(n.Add(1), 10) + `"}`), nil
	}
	src := hot.NewSource(routeTable{})
	r, err := New(src, JSONDecoder[routeTable](),
		WithFetcher(fetch),
		WithInterval(5*time.Millisecond),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	require.Eventually(t, func() bool { return src.Version() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRestore_FromStore(t *testing.T) {
	store := &memStore{}
	path := filepath.Join(t.TempDir(), "routes.json")
	writeFile(t, path, `{"default":"persisted"}`)

	first, err := New(hot.NewSource(routeTable{}), JSONDecoder[routeTable](),
		WithFetcher(FileFetcher(path)),
		WithStore(store, "routes"),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	_, err = first.Restore(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
	_, err = first.Reload(context.Background())
	require.NoError(t, err)

	// Next process start: origin unreachable, restore last-known-good.
	src := hot.NewSource(routeTable{Default: "boot"})
	second, err := New(src, JSONDecoder[routeTable](),
		WithFetcher(FileFetcher(filepath.Join(t.TempDir(), "missing.json"))),
		WithStore(store, "routes"),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	res, err := second.Restore(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "persisted", src.Load().Default)

	_, err = second.Reload(context.Background())
	assert.ErrorIs(t, err, ErrFetch)
	assert.Equal(t, "persisted", src.Load().Default)
	assert.Equal(t, 1, store.saves)
}

type memStore struct {
	mu    sync.Mutex
	m     map[string][]byte
	saves int
}

func (s *memStore) Load(key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[key]
	if !ok {
		return nil, ErrNoSnapshot
	}
	return v, nil
}

func (s *memStore) Save(key string, raw []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.m == nil {
		s.m = make(map[string][]byte)
	}
	s.m[key] = append([]byte(nil), raw...)
	s.saves++
	return nil
}

func TestPersistFailureDoesNotFailReload(t *testing.T) {
	src := hot.NewSource(0)
	r, err := New(src, JSONDecoder[int](),
		WithFetcher(func(context.Context) ([]byte, error) { return []byte("5"), nil }),
		WithStore(failingStore{}, "n"),
		WithLogger(quietLogger()),
	)
	require.NoError(t, err)
	res, err := r.Reload(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 5, src.Load())
}

type failingStore struct{}

func (failingStore) Load(string) ([]byte, error) { return nil, errors.New("disk gone") }
func (failingStore) Save(string, []byte) error   { return errors.New("disk gone") }
