package dao

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/haierkeys/miknow-notebook-service/internal/domain"
)

type memKey struct {
	uid int64
	key string
}

// MemoryStore 内存实现的 domain.Store，用于测试与无数据库场景
type MemoryStore struct {
	mu   sync.RWMutex
	data map[memKey]string
	publisher
}

var _ domain.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[memKey]string)}
}

func (s *MemoryStore) Get(ctx context.Context, uid int64, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[memKey{uid, key}]
	return v, ok, nil
}

func (s *MemoryStore) Set(ctx context.Context, uid int64, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	s.data[memKey{uid, key}] = value
	s.mu.Unlock()
	s.publish(domain.ChangeEvent{UID: uid, Key: key, Value: value, At: time.Now()})
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, uid int64, key string, fn func(cur string, ok bool) (string, error)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	cur, ok := s.data[memKey{uid, key}]
	next, err := fn(cur, ok)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	s.data[memKey{uid, key}] = next
	s.mu.Unlock()
	s.publish(domain.ChangeEvent{UID: uid, Key: key, Value: next, At: time.Now()})
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, uid int64, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.data, memKey{uid, key})
	s.mu.Unlock()
	s.publish(domain.ChangeEvent{UID: uid, Key: key, Deleted: true, At: time.Now()})
	return nil
}

func (s *MemoryStore) UIDsWithKey(_ context.Context, key string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var uids []int64
	for k := range s.data {
		if k.key == key {
			uids = append(uids, k.uid)
		}
	}
	sort.Slice(uids, func(i, j int) bool { return uids[i] < uids[j] })
	return uids, nil
}
