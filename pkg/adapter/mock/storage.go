package mock

import (
	"bytes"
	"context"
	"io"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

// Storage keeps objects in memory
type Storage struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewStorage() *Storage {
	return &Storage{data: make(map[string][]byte)}
}

func (m *Storage) Put(ctx context.Context, key string) (io.WriteCloser, error) {
	return &writeCloser{storage: m, key: key}, nil
}

func (m *Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.data[key]
	if !ok {
		return nil, goerr.New("data not found", goerr.V("key", key))
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Keys returns stored object keys
func (m *Storage) Keys() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return keys
}

type writeCloser struct {
	bytes.Buffer
	storage *Storage
	key     string
}

func (w *writeCloser) Close() error {
	w.storage.mu.Lock()
	defer w.storage.mu.Unlock()
	w.storage.data[w.key] = w.Bytes()
	return nil
}
