// pantry/storage/memory.go
package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	objects map[string]memObject
}

type memObject struct {
	data []byte
	opts PutOptions
}

func NewMemory() *Memory {
	return &Memory{objects: map[string]memObject{}}
}

func (m *Memory) Backend() string { return "memory" }

func (m *Memory) Put(ctx context.Context, key string, r io.Reader, opts PutOptions) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	key, err := CleanKey(key)
	if err != nil {
		return err
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.objects[key] = memObject{data: b, opts: opts}
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Object
	for key, o := range m.objects {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		etag, n, _ := ETag(bytes.NewReader(o.data))
		out = append(out, Object{Key: key, Size: n, ETag: etag})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *Memory) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.objects, key)
	}
	return nil
}

// Get returns the object's content and options.
func (m *Memory) Get(key string) ([]byte, PutOptions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, PutOptions{}, ErrNotFound
	}
	return o.data, o.opts, nil
}
