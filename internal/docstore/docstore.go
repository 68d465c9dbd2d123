// Package docstore persists purchase order records as JSON documents on
// disk, one file per order.
package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"github.com/sentinai/sentin"
)

// FileDocumentStore writes each order record to <dir>/<orderID>_<item>.json.
type FileDocumentStore struct {
	dir    string
	mutex  sync.Mutex
	logger Logger
}

// NewFileDocumentStore creates the orders directory if needed. A nil logger
// selects the JSON StdLogger.
func NewFileDocumentStore(dir string, logger Logger) (*FileDocumentStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create orders directory %s: %w", dir, err)
	}
	if logger == nil {
		logger = &StdLogger{}
	}
	return &FileDocumentStore{dir: dir, logger: logger}, nil
}

// SaveOrder writes the order record to its own JSON file.
func (s *FileDocumentStore) SaveOrder(ctx context.Context, order sentin.OrderRecord) error {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	path := filepath.Join(s.dir, fileName(order))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create order file %s: %w", path, err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(order); err != nil {
		return fmt.Errorf("failed to encode order %s: %w", order.OrderID, err)
	}
	s.logger.Info("Order record saved", map[string]interface{}{
		"order": order.OrderID,
		"path":  path,
	})
	return nil
}

// ListOrders reads every persisted order, sorted by order ID. Unreadable
// files are skipped with a log line rather than failing the listing.
func (s *FileDocumentStore) ListOrders(ctx context.Context) ([]sentin.OrderRecord, error) {
	if err := errbuilder.WrapIfContextDone(ctx, nil); err != nil {
		return nil, err
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders directory %s: %w", s.dir, err)
	}

	var orders []sentin.OrderRecord
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Error("Skipping unreadable order file", map[string]interface{}{"file": entry.Name(), "error": err.Error()})
			continue
		}
		var order sentin.OrderRecord
		if err := json.Unmarshal(data, &order); err != nil {
			s.logger.Error("Skipping malformed order file", map[string]interface{}{"file": entry.Name(), "error": err.Error()})
			continue
		}
		orders = append(orders, order)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].OrderID < orders[j].OrderID })
	return orders, nil
}

// fileName builds a filesystem-safe name from the order ID and item.
func fileName(order sentin.OrderRecord) string {
	item := strings.ToLower(order.Item)
	item = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r == ' ', r == '-', r == '_':
			return '_'
		default:
			return -1
		}
	}, item)
	return fmt.Sprintf("%s_%s.json", order.OrderID, item)
}
