package cache

import (
	"errors"
	"testing"
	"time"
)

func TestStore_SetGet(t *testing.T) {
	s := New(Config{})

	s.Set("a", 1)

	value, ok := s.Get("a")
	if !ok || value != 1 {
		t.Errorf("expected 1, got %v (ok=%v)", value, ok)
	}

	if _, ok := s.Get("missing"); ok {
		t.Error("missing key should report ok=false")
	}
}

func TestStore_TTLExpiry(t *testing.T) {
	s := New(Config{TTL: time.Minute})

	clock := time.Now()
	s.now = func() time.Time { return clock }

	s.Set("a", 1)

	clock = clock.Add(30 * time.Second)
	if _, ok := s.Get("a"); !ok {
		t.Fatal("entry should still be alive")
	}

	clock = clock.Add(2 * time.Minute)
	if _, ok := s.Get("a"); ok {
		t.Error("expired entry should not be returned")
	}
	if s.Len() != 0 {
		t.Errorf("expired entry should be removed, len=%d", s.Len())
	}
}

func TestStore_CapacityEvictsOldest(t *testing.T) {
	s := New(Config{Capacity: 2})

	s.Set("a", 1)
	s.Set("b", 2)

	// Обращение к a делает b самой давней
	if _, ok := s.Get("a"); !ok {
		t.Fatal("a should be present")
	}

	s.Set("c", 3)

	if _, ok := s.Get("b"); ok {
		t.Error("least recently used entry should have been evicted")
	}
	if _, ok := s.Get("a"); !ok {
		t.Error("recently used entry should survive eviction")
	}
	if _, ok := s.Get("c"); !ok {
		t.Error("new entry should be present")
	}
}

func TestStore_GetOrCompute(t *testing.T) {
	s := New(Config{})

	calls := 0
	compute := func() (any, error) {
		calls++
		return "computed", nil
	}

	for i := 0; i < 3; i++ {
		value, err := s.GetOrCompute("k", compute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if value != "computed" {
			t.Fatalf("expected computed, got %v", value)
		}
	}

	if calls != 1 {
		t.Errorf("compute should run once, ran %d times", calls)
	}
}

func TestStore_GetOrComputeErrorNotCached(t *testing.T) {
	s := New(Config{})
	boom := errors.New("boom")

	calls := 0
	_, err := s.GetOrCompute("k", func() (any, error) {
		calls++
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}

	// Ошибка не закэширована: повтор вычисляет заново
	value, err := s.GetOrCompute("k", func() (any, error) {
		calls++
		return 42, nil
	})
	if err != nil || value != 42 {
		t.Fatalf("expected 42, got %v (%v)", value, err)
	}
	if calls != 2 {
		t.Errorf("expected 2 compute calls, got %d", calls)
	}
}
