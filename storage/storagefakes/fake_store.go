package storagefakes

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/storyfield/go-client/storage"
)

var _ storage.Store = (*FakeStore)(nil)

// FakeStore is an in-memory storage.Store with injectable failures for
// exercising degraded-storage paths.
type FakeStore struct {
	lock   sync.RWMutex
	values map[string][]byte

	FailSet    error // returned from Set when non-nil
	FailGet    error // returned from Get when non-nil
	FailRemove error // returned from Remove when non-nil
	FailClear  error // returned from Clear when non-nil

	GetCalls    int
	SetCalls    int
	RemoveCalls int
}

func NewFakeStore() *FakeStore {
	return &FakeStore{values: make(map[string][]byte)}
}

func (f *FakeStore) Set(ctx context.Context, key string, value any) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.SetCalls++
	if f.FailSet != nil {
		return f.FailSet
	}
	val, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.values[key] = val
	return nil
}

func (f *FakeStore) Get(ctx context.Context, key string, out any) (bool, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.GetCalls++
	if f.FailGet != nil {
		return false, f.FailGet
	}
	val, ok := f.values[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(val, out); err != nil {
		return false, err
	}
	return true, nil
}

func (f *FakeStore) Remove(ctx context.Context, key string) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.RemoveCalls++
	if f.FailRemove != nil {
		return f.FailRemove
	}
	delete(f.values, key)
	return nil
}

func (f *FakeStore) Clear(ctx context.Context) error {
	f.lock.Lock()
	defer f.lock.Unlock()

	if f.FailClear != nil {
		return f.FailClear
	}
	f.values = make(map[string][]byte)
	return nil
}

// Has reports whether a key is present, bypassing failure injection.
func (f *FakeStore) Has(key string) bool {
	f.lock.RLock()
	defer f.lock.RUnlock()
	_, ok := f.values[key]
	return ok
}
