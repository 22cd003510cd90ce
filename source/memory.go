package source

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Memory is an in-process Source. It is safe for concurrent use.
type Memory struct {
	mu      sync.RWMutex
	docs    map[string]map[string]Document // org|collection -> id -> doc
	latency time.Duration
	fail    map[string]error // collection -> injected error
	calls   map[string]int   // collection -> read count
}

// NewMemory returns an empty Memory source.
func NewMemory() *Memory {
	return &Memory{
		docs:  make(map[string]map[string]Document),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

// WithLatency delays every read by d, honouring context cancellation.
func (m *Memory) WithLatency(d time.Duration) *Memory {
	m.mu.Lock()
	m.latency = d
	m.mu.Unlock()
	return m
}

// FailCollection makes every read of collection return err. A nil err
// removes the injected failure.
func (m *Memory) FailCollection(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.fail, collection)
		return
	}
	m.fail[collection] = err
}

// Calls returns how many reads hit collection.
func (m *Memory) Calls(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[collection]
}

// Put stores doc, replacing any document with the same ID.
func (m *Memory) Put(_ context.Context, orgID, collection string, doc Document) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	if doc.ID == "" {
		return fmt.Errorf("document id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.docs[bucket(orgID, collection)]
	if b == nil {
		b = make(map[string]Document)
		m.docs[bucket(orgID, collection)] = b
	}
	b[doc.ID] = doc
	return nil
}

// Add stores fields under a fresh random ID and returns it.
func (m *Memory) Add(orgID, collection string, fields map[string]any) (string, error) {
	id := uuid.NewString()
	if err := m.Put(context.Background(), orgID, collection, Document{ID: id, Fields: fields}); err != nil {
		return "", err
	}
	return id, nil
}

func (m *Memory) FetchByOrg(ctx context.Context, orgID, collection string) ([]Document, error) {
	if err := m.read(ctx, collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedDocs(m.docs[bucket(orgID, collection)], nil), nil
}

func (m *Memory) FetchByKey(ctx context.Context, orgID, collection, id string) (*Document, error) {
	if err := m.read(ctx, collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.docs[bucket(orgID, collection)][id]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (m *Memory) Query(ctx context.Context, orgID, collection, field, value string) ([]Document, error) {
	if err := m.read(ctx, collection); err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedDocs(m.docs[bucket(orgID, collection)], func(d Document) bool {
		return matches(d, field, value)
	}), nil
}

// read validates the collection, counts the call and applies latency and
// injected failures.
func (m *Memory) read(ctx context.Context, collection string) error {
	if err := checkCollection(collection); err != nil {
		return err
	}
	m.mu.Lock()
	m.calls[collection]++
	lat, failErr := m.latency, m.fail[collection]
	m.mu.Unlock()

	if lat > 0 {
		t := time.NewTimer(lat)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
	return failErr
}

func bucket(orgID, collection string) string { return orgID + "|" + collection }

func sortedDocs(b map[string]Document, keep func(Document) bool) []Document {
	out := make([]Document, 0, len(b))
	for _, d := range b {
		if keep == nil || keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

var _ Source = (*Memory)(nil)
var _ Writer = (*Memory)(nil)
