package cache

import (
	"os"
	"runtime"
	"testing"
	"time"
)

func newTestCache(t *testing.T, ttl time.Duration) *Cache {
	t.Helper()
	c, err := New(t.TempDir(), ttl)
	if err != nil {
		t.Fatalf("cannot create cache: %v", err)
	}
	return c
}

func countingProducer(value string, calls *int) func() (string, error) {
	return func() (string, error) {
		*calls++
		return value, nil
	}
}

func TestFetchMemoizesWithinTTL(t *testing.T) {
	c := newTestCache(t, time.Hour)
	calls := 0

	for i := 0; i < 3; i++ {
		got, err := Fetch(c, "instance-metadata", nil, countingProducer("i-12345678", &calls))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != "i-12345678" {
			t.Errorf("expected cached value i-12345678, got %q", got)
		}
	}

	if calls != 1 {
		t.Errorf("expected producer to be invoked once, got %d", calls)
	}
}

func TestFetchRecomputesAfterTTL(t *testing.T) {
	c := newTestCache(t, time.Hour)
	calls := 0

	if _, err := Fetch(c, "instance-metadata", nil, countingProducer("first", &calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// move past the TTL
	c.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	got, err := Fetch(c, "instance-metadata", nil, countingProducer("second", &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "second" {
		t.Errorf("expected recomputed value, got %q", got)
	}
	if calls != 2 {
		t.Errorf("expected producer to be invoked twice, got %d", calls)
	}
}

func TestFetchDistinguishesArguments(t *testing.T) {
	c := newTestCache(t, time.Hour)

	first, err := Fetch(c, "auto-scaling-group", []string{"us-east-1", "i-1"}, func() (string, error) {
		return "asg-east", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := Fetch(c, "auto-scaling-group", []string{"eu-west-1", "i-1"}, func() (string, error) {
		return "asg-west", nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first == second {
		t.Errorf("expected distinct cached values per argument list, got %q twice", first)
	}
}

func TestFetchDistinguishesProducers(t *testing.T) {
	c := newTestCache(t, time.Hour)

	if _, err := Fetch(c, "producer-a", []string{"x"}, func() (string, error) { return "a", nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := Fetch(c, "producer-b", []string{"x"}, func() (string, error) { return "b", nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "b" {
		t.Errorf("expected producer-b to miss producer-a's entry, got %q", got)
	}
}

func TestSignatureStability(t *testing.T) {
	a := Signature("instance-metadata")
	b := Signature("instance-metadata")
	if a != b {
		t.Errorf("expected stable signature, got %q and %q", a, b)
	}

	// argument boundaries matter
	if Signature("p", "ab", "c") == Signature("p", "a", "bc") {
		t.Error("expected different signatures for different argument splits")
	}
	if Signature("p", "a") == Signature("pa") {
		t.Error("expected producer id and argument to hash differently")
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c := newTestCache(t, time.Hour)
	calls := 0

	if _, err := Fetch(c, "instance-metadata", nil, countingProducer("good", &calls)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	path := c.entryPath(Signature("instance-metadata"))
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("cannot corrupt entry: %v", err)
	}

	got, err := Fetch(c, "instance-metadata", nil, countingProducer("recomputed", &calls))
	if err != nil {
		t.Fatalf("expected corruption to degrade to a recompute, got %v", err)
	}
	if got != "recomputed" {
		t.Errorf("expected recomputed value, got %q", got)
	}
	if calls != 2 {
		t.Errorf("expected producer to be invoked twice, got %d", calls)
	}
}

func TestEntriesAreOwnerOnly(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not meaningful on windows")
	}

	c := newTestCache(t, time.Hour)
	if _, err := Fetch(c, "instance-metadata", nil, func() (string, error) { return "secret", nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	info, err := os.Stat(c.entryPath(Signature("instance-metadata")))
	if err != nil {
		t.Fatalf("cannot stat entry: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("expected entry mode 0600, got %o", perm)
	}
}

func TestProducerErrorIsNotCached(t *testing.T) {
	c := newTestCache(t, time.Hour)
	calls := 0

	_, err := Fetch(c, "instance-metadata", nil, func() (string, error) {
		calls++
		return "", os.ErrDeadlineExceeded
	})
	if err == nil {
		t.Fatal("expected producer error to propagate")
	}

	got, err := Fetch(c, "instance-metadata", nil, countingProducer("ok", &calls))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "ok" || calls != 2 {
		t.Errorf("expected failed produce to leave no entry behind (got %q, %d calls)", got, calls)
	}
}
