package id

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGenerate(t *testing.T) {
	gen := NewGenerator()

	id1 := gen.Generate()
	id2 := gen.Generate()

	if id1.String() == id2.String() {
		t.Error("Generated IDs should be unique")
	}
	if id1.Compare(id2) >= 0 {
		t.Errorf("IDs should be increasing: %s then %s", id1, id2)
	}
}

func TestGenerateWithPrefix(t *testing.T) {
	gen := NewGenerator()

	for _, prefix := range []string{SessionPrefix, RequestPrefix, SpanPrefix} {
		id := gen.GenerateWithPrefix(prefix)

		if !strings.HasPrefix(id, prefix+"_") {
			t.Errorf("ID should start with '%s_', got: %s", prefix, id)
		}

		parts := strings.Split(id, "_")
		if len(parts) != 2 {
			t.Fatalf("Prefixed ID should have format 'prefix_ulid', got: %s", id)
		}
		if !IsValid(parts[1]) {
			t.Errorf("ULID part should be valid: %s", parts[1])
		}
	}
}

func TestTypedIDGeneration(t *testing.T) {
	if s := string(NewSessionID()); !strings.HasPrefix(s, "sess_") {
		t.Errorf("SessionID should start with 'sess_', got: %s", s)
	}
	if s := string(NewRequestID()); !strings.HasPrefix(s, "req_") {
		t.Errorf("RequestID should start with 'req_', got: %s", s)
	}
	if s := string(NewSpanID()); !strings.HasPrefix(s, "span_") {
		t.Errorf("SpanID should start with 'span_', got: %s", s)
	}
}

func TestParseSessionID(t *testing.T) {
	valid := NewSessionID()
	got, err := ParseSessionID(valid.String())
	if err != nil {
		t.Fatalf("Valid session ID rejected: %v", err)
	}
	if got != valid {
		t.Errorf("ParseSessionID changed the id: %s != %s", got, valid)
	}

	invalid := []string{
		"",
		"sess_",
		"sess_not-a-ulid",
		"sess_" + strings.Repeat("Z", 26),
		string(NewRequestID()),
		strings.TrimPrefix(valid.String(), "sess_"),
	}
	for _, s := range invalid {
		if _, err := ParseSessionID(s); !errors.Is(err, ErrMalformed) {
			t.Errorf("Expected ErrMalformed for %q, got %v", s, err)
		}
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now()
	sid := NewSessionID()
	after := time.Now()

	ts, err := Timestamp(sid.String())
	if err != nil {
		t.Fatalf("Failed to extract timestamp: %v", err)
	}

	// ULID timestamps have millisecond precision
	if ts.UnixMilli() < before.UnixMilli() || ts.UnixMilli() > after.UnixMilli() {
		t.Errorf("Timestamp %v outside [%v, %v]", ts, before, after)
	}

	if _, err := Timestamp("sess_garbage"); !errors.Is(err, ErrMalformed) {
		t.Errorf("Expected ErrMalformed, got %v", err)
	}
}

func TestConcurrentGeneration(t *testing.T) {
	gen := NewGenerator()

	const goroutines = 50
	const idsPerGoroutine = 100

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		seen = make(map[string]bool, goroutines*idsPerGoroutine)
	)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < idsPerGoroutine; j++ {
				id := gen.GenerateWithPrefix(SessionPrefix)
				mu.Lock()
				if seen[id] {
					t.Errorf("Duplicate ID generated: %s", id)
				}
				seen[id] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != goroutines*idsPerGoroutine {
		t.Errorf("Expected %d unique IDs, got %d", goroutines*idsPerGoroutine, len(seen))
	}
}
