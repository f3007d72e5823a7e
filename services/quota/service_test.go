package quota

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func fixedClock(day string) func() time.Time {
	t, _ := time.Parse("2006-01-02", day)
	return func() time.Time { return t }
}

func TestTryConsumeStopsAtCeiling(t *testing.T) {
	svc := NewService(NewMemoryStore(), 5)
	svc.now = fixedClock("2026-09-01")

	for i := 0; i < 5; i++ {
		ok, err := svc.TryConsume("user1")
		if err != nil {
			t.Fatalf("call %d: %v", i+1, err)
		}
		if !ok {
			t.Fatalf("call %d refused below ceiling", i+1)
		}
	}

	ok, err := svc.TryConsume("user1")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("sixth call admitted past the ceiling")
	}

	left, err := svc.Remaining("user1")
	if err != nil {
		t.Fatal(err)
	}
	if left != 0 {
		t.Errorf("Remaining = %d, want 0", left)
	}
}

func TestQuotaResetsNextDay(t *testing.T) {
	svc := NewService(NewMemoryStore(), 2)
	svc.now = fixedClock("2026-09-01")

	for i := 0; i < 2; i++ {
		if ok, _ := svc.TryConsume("user1"); !ok {
			t.Fatalf("call %d refused", i+1)
		}
	}
	if ok, _ := svc.TryConsume("user1"); ok {
		t.Fatal("admitted past ceiling")
	}

	svc.now = fixedClock("2026-09-02")

	ok, err := svc.TryConsume("user1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Error("refused on a fresh day")
	}
	left, _ := svc.Remaining("user1")
	if left != 1 {
		t.Errorf("Remaining = %d, want 1", left)
	}
}

func TestQuotaIsPerUser(t *testing.T) {
	svc := NewService(NewMemoryStore(), 1)
	svc.now = fixedClock("2026-09-01")

	if ok, _ := svc.TryConsume("user1"); !ok {
		t.Fatal("user1 refused")
	}
	if ok, _ := svc.TryConsume("user1"); ok {
		t.Fatal("user1 admitted past ceiling")
	}
	if ok, _ := svc.TryConsume("user2"); !ok {
		t.Error("user2 refused with an untouched allowance")
	}
}

func TestTryConsumeRaceAdmitsExactlyOne(t *testing.T) {
	svc := NewService(NewMemoryStore(), 5)
	svc.now = fixedClock("2026-09-01")

	for i := 0; i < 4; i++ {
		if ok, _ := svc.TryConsume("user1"); !ok {
			t.Fatalf("warmup call %d refused", i+1)
		}
	}

	var wg sync.WaitGroup
	results := make([]bool, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = svc.TryConsume("user1")
		}(i)
	}
	wg.Wait()

	admitted := 0
	for _, ok := range results {
		if ok {
			admitted++
		}
	}
	if admitted != 1 {
		t.Errorf("admitted %d racing calls for the last slot, want exactly 1", admitted)
	}
}

func TestTryConsumeRequiresUserID(t *testing.T) {
	svc := NewService(NewMemoryStore(), 5)
	if _, err := svc.TryConsume("  "); err == nil {
		t.Error("expected error for blank user id")
	}
}

func TestFileStoreSurvivesReload(t *testing.T) {
	dir := t.TempDir()

	st, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := st.Put("user1", Entry{Date: "2026-09-01", Count: 3}); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewFileStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	e, ok, err := reloaded.Get("user1")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || e.Date != "2026-09-01" || e.Count != 3 {
		t.Errorf("got %+v (found=%v), want date 2026-09-01 count 3", e, ok)
	}

	if _, err := NewFileStore(filepath.Join(dir, "nested", "deep")); err != nil {
		t.Fatal("expected nested dir creation to succeed:", err)
	}
}

func TestFileStoreRejectsEmptyDir(t *testing.T) {
	if _, err := NewFileStore(" "); err == nil {
		t.Error("expected error for blank storage dir")
	}
}
