// Package bolt is a store.Storage based on BoltDB.
package bolt

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/Comcast/casematch/store"
	. "github.com/Comcast/casematch/util/testutil"

	bolt "go.etcd.io/bbolt"
)

// Storage keeps each namespace in its own bucket, which maps table
// ids to TableStates (as JSON).
type Storage struct {
	Debug    bool
	filename string
	db       *bolt.DB
}

func NewStorage(filename string) (*Storage, error) {
	return &Storage{
		filename: filename,
	}, nil
}

func (s *Storage) Open(ctx context.Context) error {
	opts := &bolt.Options{
		Timeout: time.Second,
	}

	db, err := bolt.Open(s.filename, 0644, opts)
	if err != nil {
		return err
	}
	s.db = db
	return nil
}

func (s *Storage) Close(ctx context.Context) error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Storage) logf(format string, args ...interface{}) {
	if s.Debug {
		log.Printf("BoltDB Storage."+format, args...)
	}
}

func (s *Storage) MakeNamespace(ctx context.Context, ns string) error {
	s.logf("MakeNamespace %s", ns)
	return s.db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ns))
		return err
	})
}

func (s *Storage) RemNamespace(ctx context.Context, ns string) error {
	s.logf("RemNamespace %s", ns)
	return s.db.Update(func(tx *bolt.Tx) error {
		err := tx.DeleteBucket([]byte(ns))
		if errors.Is(err, bolt.ErrBucketNotFound) {
			return store.NotFound
		}
		return err
	})
}

func (s *Storage) GetTables(ctx context.Context, ns string) ([]*store.TableState, error) {
	s.logf("GetTables %s", ns)
	tss := make([]*store.TableState, 0, 32)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(ns))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for id, bs := c.First(); id != nil; id, bs = c.Next() {
			var ts store.TableState
			if err := json.Unmarshal(bs, &ts); err != nil {
				return err
			}
			ts.Id = string(id)
			tss = append(tss, &ts)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logf("GetTables %s found %d tables", ns, len(tss))

	if len(tss) == 0 {
		return nil, nil
	}

	return tss, nil
}

func (s *Storage) WriteTables(ctx context.Context, ns string, tss []*store.TableState) error {
	if 0 == len(tss) {
		return nil
	}

	vals := make(map[string][]byte, len(tss))

	for _, ts := range tss {
		id := ts.Id
		if ts.Deleted {
			vals[id] = nil
			s.logf("WriteTables %s deleting %s", ns, id)
			continue
		}
		// To save some space, remove id.
		ts = &store.TableState{
			Table:   ts.Table,
			Updated: ts.Updated,
		}
		js, err := json.Marshal(&ts)
		if err != nil {
			return err
		}
		s.logf("WriteTables %s %s %s", ns, id, js)
		vals[id] = js
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(ns))
		if err != nil {
			return err
		}
		for id, bs := range vals {
			var (
				key = []byte(id)
				err error
			)
			if bs == nil {
				err = b.Delete(key)
			} else {
				err = b.Put(key, bs)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// Dump returns the whole database as JSON-friendly maps.  For
// debugging.
func (s *Storage) Dump(ctx context.Context) (map[string]map[string]interface{}, error) {
	acc := make(map[string]map[string]interface{})
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.ForEach(func(name []byte, b *bolt.Bucket) error {
			tables := make(map[string]interface{})
			err := b.ForEach(func(k, v []byte) error {
				tables[string(k)] = Dwimjs(v)
				return nil
			})
			acc[string(name)] = tables
			return err
		})
	})
	return acc, err
}
