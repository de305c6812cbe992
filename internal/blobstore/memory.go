package blobstore

import (
	"context"
	"fmt"
	"path"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store for tests. Ops records every save and
// delete in order so tests can assert replace/release sequencing.
type Memory struct {
	mu      sync.Mutex
	objects map[string][]byte

	Ops        []string
	FailSave   bool
	FailDelete bool
}

func NewMemory() *Memory {
	return &Memory{objects: map[string][]byte{}}
}

func (m *Memory) Save(_ context.Context, prefix, filename string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailSave {
		return "", fmt.Errorf("save refused")
	}
	ref := path.Join(prefix, uuid.NewString()+"-"+sanitize(filename))
	m.objects[ref] = append([]byte(nil), data...)
	m.Ops = append(m.Ops, "save:"+ref)
	return ref, nil
}

func (m *Memory) Delete(_ context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Ops = append(m.Ops, "delete:"+ref)
	if m.FailDelete {
		return fmt.Errorf("delete refused")
	}
	if _, ok := m.objects[ref]; !ok {
		return fmt.Errorf("no blob %q", ref)
	}
	delete(m.objects, ref)
	return nil
}

// Has reports whether a ref is still stored.
func (m *Memory) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[ref]
	return ok
}

// Count returns the number of stored blobs.
func (m *Memory) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
