package hot

import (
	"errors"
	"strconv"
	"testing"
)

func TestRegisterKeyValidation(t *testing.T) {
	r := NewRegistry()
	src := NewSource(1)
	for _, key := range []string{"", "a/b", "a b", "a$"} {
		if err := Register(r, key, src); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestRegisterDuplicateAndNil(t *testing.T) {
	r := NewRegistry()
	if err := Register(r, "a", NewSource(1)); err != nil {
		t.Fatal(err)
	}
	if err := Register(r, "a", NewSource(2)); !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	if err := Register[int](r, "b", nil); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
	if err := Register(nil, "c", NewSource(1)); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestZeroValueRegistryUsable(t *testing.T) {
	var r Registry
	src := NewSource("x")
	if err := Register(&r, "s", src); err != nil {
		t.Fatal(err)
	}
	if err := r.SetFromString("s", "y"); err != nil {
		t.Fatal(err)
	}
	if got := src.Load(); got != "y" {
		t.Fatalf("Load=%q, want y", got)
	}
}

func TestSnapshotSortedAndLookup(t *testing.T) {
	r := NewRegistry()
	_ = Register(r, "b.int", NewSource(2))
	_ = Register(r, "a.str", NewSource("s", WithStrategy[string](StrategyLocked)))

	snap := r.Snapshot()
	if len(snap.Items) != 2 || snap.Items[0].Key != "a.str" || snap.Items[1].Key != "b.int" {
		t.Fatalf("items=%+v, want sorted a.str, b.int", snap.Items)
	}
	if it := snap.Items[0]; it.Type != "string" || it.Value != "s" || it.Strategy != StrategyLocked {
		t.Fatalf("item=%+v", it)
	}
	if it := snap.Items[1]; it.Type != "int" || it.Value != 2 || !it.LastUpdatedAt.IsZero() {
		t.Fatalf("item=%+v", it)
	}

	if _, ok := r.Lookup("missing"); ok {
		t.Fatalf("expected ok=false for missing key")
	}
	if _, ok := r.Lookup("a/b"); ok {
		t.Fatalf("expected ok=false for invalid key")
	}
	it, ok := r.Lookup("b.int")
	if !ok || it.Version != 0 {
		t.Fatalf("Lookup=%+v ok=%v", it, ok)
	}
}

func TestSetFromStringDefaultParsers(t *testing.T) {
	type limits struct {
		Max int `json:"max"`
	}
	r := NewRegistry()
	str := NewSource("a")
	num := NewSource(1)
	obj := NewSource(limits{Max: 1})
	_ = Register(r, "str", str)
	_ = Register(r, "num", num)
	_ = Register(r, "obj", obj)

	if err := r.SetFromString("str", `not "json"`); err != nil {
		t.Fatal(err)
	}
	if got := str.Load(); got != `not "json"` {
		t.Fatalf("string taken as-is, got %q", got)
	}
	if err := r.SetFromString("num", "42"); err != nil {
		t.Fatal(err)
	}
	if got := num.Load(); got != 42 {
		t.Fatalf("num=%d, want 42", got)
	}
	if err := r.SetFromString("obj", `{"max":9}`); err != nil {
		t.Fatal(err)
	}
	if got := obj.Load(); got.Max != 9 {
		t.Fatalf("obj=%+v, want max 9", got)
	}
	if got := obj.Version(); got != 1 {
		t.Fatalf("Version=%d, want 1", got)
	}

	if err := r.SetFromString("num", "forty-two"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if got := num.Version(); got != 1 {
		t.Fatalf("failed parse must not update, version=%d", got)
	}
	if err := r.SetFromString("missing", "1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWithParse(t *testing.T) {
	r := NewRegistry()
	src := NewSource(0)
	err := Register(r, "port", src, WithParse(func(s string) (int, error) {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 65535 {
			return 0, errors.New("out of range")
		}
		return n, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SetFromString("port", "8080"); err != nil {
		t.Fatal(err)
	}
	if got := src.Load(); got != 8080 {
		t.Fatalf("port=%d, want 8080", got)
	}
	if err := r.SetFromString("port", "70000"); !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}

	mismatch := WithParse(func(s string) (string, error) { return s, nil })
	if err := Register(r, "other", NewSource(0), mismatch); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig for parser type mismatch, got %v", err)
	}
}

func TestRedaction(t *testing.T) {
	r := NewRegistry()
	_ = Register(r, "secret", NewSource("s3cr3t"), WithRedact())

	it, ok := r.Lookup("secret")
	if !ok {
		t.Fatalf("expected ok=true")
	}
	if !it.Redacted || it.Value != nil {
		t.Fatalf("expected redacted item, got %+v", it)
	}

	_ = Register(r, "secret.n", NewSource(1), WithRedact())
	err := r.SetFromString("secret.n", "s3cr3t-guess")
	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
	if got := err.Error(); got != `hot: invalid value: "secret.n"` {
		t.Fatalf("redacted error must not echo details, got %q", got)
	}
}

func TestDefaultRegistrySingleton(t *testing.T) {
	if Default() != Default() {
		t.Fatalf("Default should return the same Registry")
	}
}
