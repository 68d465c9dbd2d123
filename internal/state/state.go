// Package state holds the mutable operational record of the facility: the
// supply inventory and an append-only activity log.
package state

import (
	"strings"
	"sync"
	"time"

	"github.com/sentinai/sentin"
)

// OperationalState is the shared record mutated by executed actions and
// deferred deliveries. All access goes through its methods; inventory keys
// are never deleted, only created or incremented.
type OperationalState struct {
	mutex     sync.Mutex
	inventory map[string]int
	logs      []sentin.LogEntry
	now       func() time.Time
}

// New creates an operational state seeded with the given inventory. The seed
// map is copied, never retained.
func New(inventory map[string]int) *OperationalState {
	inv := make(map[string]int, len(inventory))
	for k, v := range inventory {
		inv[k] = v
	}
	return &OperationalState{
		inventory: inv,
		now:       time.Now,
	}
}

// SetClock replaces the log timestamp source. Useful in tests.
func (s *OperationalState) SetClock(now func() time.Time) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.now = now
}

// MergeStock adds quantity to the inventory line matching the item name,
// resolving the line with MatchKey under the state lock so concurrent merges
// never lose an update. It returns the resolved key and the new total.
func (s *OperationalState) MergeStock(item string, quantity int) (string, int) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	key := matchKeyLocked(s.inventory, item)
	s.inventory[key] += quantity
	return key, s.inventory[key]
}

// AddStock increments an exact inventory key, creating it if absent.
func (s *OperationalState) AddStock(key string, quantity int) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.inventory[key] += quantity
	return s.inventory[key]
}

// Stock returns the quantity for an exact inventory key.
func (s *OperationalState) Stock(key string) (int, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	qty, ok := s.inventory[key]
	return qty, ok
}

// Inventory returns a copy of the inventory map.
func (s *OperationalState) Inventory() map[string]int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make(map[string]int, len(s.inventory))
	for k, v := range s.inventory {
		out[k] = v
	}
	return out
}

// AppendLog records a timestamped message in the activity log.
func (s *OperationalState) AppendLog(message string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.logs = append(s.logs, sentin.LogEntry{
		Timestamp: s.now(),
		Message:   message,
	})
}

// Logs returns a copy of the full activity log, oldest first.
func (s *OperationalState) Logs() []sentin.LogEntry {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]sentin.LogEntry, len(s.logs))
	copy(out, s.logs)
	return out
}

// MatchKey resolves an item name to an inventory key. The first token of the
// lowercased name is compared against existing keys by substring in either
// direction; with no match the item name itself becomes a new key, verbatim.
func (s *OperationalState) MatchKey(item string) string {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return matchKeyLocked(s.inventory, item)
}

func matchKeyLocked(inventory map[string]int, item string) string {
	token := firstToken(item)
	if token == "" {
		return "unspecified"
	}
	for key := range inventory {
		lower := strings.ToLower(key)
		if strings.Contains(lower, token) || strings.Contains(token, lower) {
			return key
		}
	}
	return strings.TrimSpace(item)
}

func firstToken(item string) string {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(item)))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
