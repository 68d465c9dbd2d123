package state

import (
	"sync"
	"testing"
	"time"
)

func seedInventory() map[string]int {
	return map[string]int{
		"masks":          454,
		"oxygen":         32,
		"beds_available": 17,
		"ors_packs":      50,
	}
}

func TestNewCopiesSeed(t *testing.T) {
	seed := seedInventory()
	s := New(seed)
	seed["masks"] = 0

	qty, ok := s.Stock("masks")
	if !ok || qty != 454 {
		t.Errorf("expected masks 454, got %d (ok=%v)", qty, ok)
	}
}

func TestMergeStockExactToken(t *testing.T) {
	s := New(seedInventory())

	key, total := s.MergeStock("Masks (N95)", 500)
	if key != "masks" {
		t.Errorf("expected key 'masks', got %q", key)
	}
	if total != 954 {
		t.Errorf("expected total 954, got %d", total)
	}
}

func TestMergeStockSubstringMatch(t *testing.T) {
	s := New(seedInventory())

	// "oxygen" is the first token of the item and a substring test against
	// existing keys resolves it.
	key, total := s.MergeStock("Oxygen cylinders", 20)
	if key != "oxygen" {
		t.Errorf("expected key 'oxygen', got %q", key)
	}
	if total != 52 {
		t.Errorf("expected total 52, got %d", total)
	}

	// Key contained in token: "ors_packs" is not, but "beds" is a prefix of
	// "beds_available".
	key, _ = s.MergeStock("beds for ICU", 5)
	if key != "beds_available" {
		t.Errorf("expected key 'beds_available', got %q", key)
	}
}

func TestMergeStockUnknownItemCreatesKey(t *testing.T) {
	s := New(seedInventory())

	// No fuzzy match: the item name becomes the new key verbatim, original
	// casing included.
	key, total := s.MergeStock("Mosquito Nets", 200)
	if key != "Mosquito Nets" {
		t.Errorf("expected new key 'Mosquito Nets', got %q", key)
	}
	if total != 200 {
		t.Errorf("expected total 200, got %d", total)
	}
	if qty, ok := s.Stock("Mosquito Nets"); !ok || qty != 200 {
		t.Errorf("expected verbatim key lookup to find 200, got %d (ok=%v)", qty, ok)
	}

	// Keys are never deleted; existing lines are untouched.
	inv := s.Inventory()
	if len(inv) != 5 {
		t.Errorf("expected 5 inventory lines, got %d", len(inv))
	}
	if inv["masks"] != 454 {
		t.Errorf("masks should be untouched, got %d", inv["masks"])
	}
}

func TestMergeStockEmptyItem(t *testing.T) {
	s := New(seedInventory())
	key, total := s.MergeStock("   ", 7)
	if key != "unspecified" {
		t.Errorf("expected key 'unspecified', got %q", key)
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}
}

func TestMergeStockConcurrent(t *testing.T) {
	s := New(map[string]int{"masks": 0})

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.MergeStock("masks", 1)
		}()
	}
	wg.Wait()

	qty, _ := s.Stock("masks")
	if qty != 100 {
		t.Errorf("expected 100 after concurrent merges, got %d", qty)
	}
}

func TestAppendLogOrderAndTimestamps(t *testing.T) {
	s := New(nil)
	base := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	current := base
	s.SetClock(func() time.Time {
		current = current.Add(time.Second)
		return current
	})

	s.AppendLog("first")
	s.AppendLog("second")

	logs := s.Logs()
	if len(logs) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(logs))
	}
	if logs[0].Message != "first" || logs[1].Message != "second" {
		t.Errorf("log order wrong: %v", logs)
	}
	if !logs[1].Timestamp.After(logs[0].Timestamp) {
		t.Error("expected increasing timestamps")
	}

	// Returned slice is a copy.
	logs[0].Message = "mutated"
	if s.Logs()[0].Message != "first" {
		t.Error("Logs must return a copy")
	}
}
