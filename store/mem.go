package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// MemStorage is an in-memory Storage.
//
// Tables are kept as JSON, so what comes out is a copy of what went
// in.
type MemStorage struct {
	sync.Mutex
	nss map[string]map[string][]byte
}

func NewMemStorage() *MemStorage {
	return &MemStorage{
		nss: make(map[string]map[string][]byte),
	}
}

func (s *MemStorage) Open(ctx context.Context) error {
	return nil
}

func (s *MemStorage) Close(ctx context.Context) error {
	return nil
}

func (s *MemStorage) MakeNamespace(ctx context.Context, ns string) error {
	s.Lock()
	defer s.Unlock()
	if _, have := s.nss[ns]; !have {
		s.nss[ns] = make(map[string][]byte)
	}
	return nil
}

func (s *MemStorage) RemNamespace(ctx context.Context, ns string) error {
	s.Lock()
	defer s.Unlock()
	if _, have := s.nss[ns]; !have {
		return NotFound
	}
	delete(s.nss, ns)
	return nil
}

func (s *MemStorage) GetTables(ctx context.Context, ns string) ([]*TableState, error) {
	s.Lock()
	defer s.Unlock()

	tables, have := s.nss[ns]
	if !have {
		return nil, nil
	}

	ids := make([]string, 0, len(tables))
	for id := range tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	acc := make([]*TableState, 0, len(ids))
	for _, id := range ids {
		var ts TableState
		if err := json.Unmarshal(tables[id], &ts); err != nil {
			return nil, err
		}
		ts.Id = id
		acc = append(acc, &ts)
	}
	return acc, nil
}

func (s *MemStorage) WriteTables(ctx context.Context, ns string, tss []*TableState) error {
	s.Lock()
	defer s.Unlock()

	tables, have := s.nss[ns]
	if !have {
		tables = make(map[string][]byte)
		s.nss[ns] = tables
	}

	for _, ts := range tss {
		if ts.Deleted {
			delete(tables, ts.Id)
			continue
		}
		js, err := json.Marshal(ts)
		if err != nil {
			return err
		}
		tables[ts.Id] = js
	}
	return nil
}
