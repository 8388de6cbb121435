/* Copyright 2018 Comcast Cable Communications Management, LLC
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 * http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/store"
	"github.com/Comcast/casematch/syntax"
	. "github.com/Comcast/casematch/util/testutil"
)

// Service is an example multi-namespace service.
//
// A namespace holds Tables, and a subject sent to a namespace is
// evaluated by one or all of its Tables.
type Service struct {
	sync.Mutex

	Interpreters core.InterpretersMap
	Factories    syntax.Factories
	Storage      store.Storage

	nsCache *NamespaceCache

	InSubs  *Subs
	OutSubs *Subs

	firehose chan interface{}
}

// NewService makes a new, empty Service.
//
// You'll need to populate Interpreters, Storage, etc.
func NewService() (*Service, error) {
	return &Service{
		InSubs:  NewSubs(),
		OutSubs: NewSubs(),
	}, nil
}

// MakeNamespace is a service-level API to create a namespace.
func (s *Service) MakeNamespace(ctx context.Context, ns string) error {
	return s.Storage.MakeNamespace(ctx, ns)
}

// RemNamespace is a service-level API to remove a namespace.
func (s *Service) RemNamespace(ctx context.Context, ns string) error {
	s.Lock()
	if s.nsCache != nil {
		s.nsCache.Rem(ns)
	}
	s.Unlock()

	return s.Storage.RemNamespace(ctx, ns)
}

// compile compiles a copy of the given (source) Table.
func (s *Service) compile(ctx context.Context, t *core.Table) (*core.Table, error) {
	c := t.Copy("")
	c.Id = t.Id
	if err := c.Compile(ctx, s.Interpreters, s.Factories, true); err != nil {
		return nil, err
	}
	return c, nil
}

// findNamespace reads a namespace's Tables from Storage and compiles
// them.
func (s *Service) findNamespace(ctx context.Context, ns string) (*Namespace, error) {
	s.Lock()
	defer s.Unlock()

	if s.nsCache != nil {
		if n := s.nsCache.Get(ns); n != nil {
			return n, nil
		}
	}

	sw := NewStopwatch("findNamespace")

	tss, err := s.Storage.GetTables(ctx, ns)
	if err != nil {
		return nil, err
	}

	n := NewNamespace(ns)
	for id, t := range store.AsTables(tss) {
		c, err := s.compile(ctx, t)
		if err != nil {
			return nil, fmt.Errorf("table %s/%s: %w", ns, id, err)
		}
		n.Tables[id] = core.NewUpdatableTable(c)
		n.sources[id] = t
	}

	sw.StopLog()

	if s.nsCache != nil {
		s.nsCache.Put(ns, n)
	}

	return n, nil
}

// PutTable is a service-level API to add or update a Table.
//
// The Table's Id identifies it within the namespace.  The Table is
// compiled before it's written, so a bad Table is never stored.
func (s *Service) PutTable(ctx context.Context, ns string, t *core.Table) error {
	if t == nil {
		return errors.New("no table given")
	}
	if t.Id == "" {
		return errors.New("table has no id")
	}

	c, err := s.compile(ctx, t)
	if err != nil {
		return err
	}

	n, err := s.findNamespace(ctx, ns)
	if err != nil {
		return err
	}

	if err = s.Storage.WriteTables(ctx, ns, store.AsTableStates(t)); err != nil {
		return err
	}

	n.Lock()
	if u, have := n.Tables[t.Id]; have {
		err = u.SetTable(c)
	} else {
		n.Tables[t.Id] = core.NewUpdatableTable(c)
	}
	n.sources[t.Id] = t
	n.Unlock()

	return err
}

// RemTable is a service-level API to remove a Table from a namespace.
func (s *Service) RemTable(ctx context.Context, ns string, id string) error {
	n, err := s.findNamespace(ctx, ns)
	if err != nil {
		return err
	}

	ts := &store.TableState{
		Id:      id,
		Deleted: true,
	}
	if err = s.Storage.WriteTables(ctx, ns, []*store.TableState{ts}); err != nil {
		return err
	}

	n.Lock()
	delete(n.Tables, id)
	delete(n.sources, id)
	n.Unlock()

	return nil
}

// GetTable returns the source of a Table.
func (s *Service) GetTable(ctx context.Context, ns string, id string) (*core.Table, error) {
	n, err := s.findNamespace(ctx, ns)
	if err != nil {
		return nil, err
	}

	n.RLock()
	t, have := n.sources[id]
	n.RUnlock()

	if !have {
		return nil, fmt.Errorf(`couldn't find table "%s" in "%s"`, id, ns)
	}
	return t, nil
}

// compiledTable returns the current compiled Table.
func (s *Service) compiledTable(ctx context.Context, ns string, id string) (*core.Table, error) {
	n, err := s.findNamespace(ctx, ns)
	if err != nil {
		return nil, err
	}

	n.RLock()
	u, have := n.Tables[id]
	n.RUnlock()

	if !have {
		return nil, fmt.Errorf(`couldn't find table "%s" in "%s"`, id, ns)
	}
	return u.Table(), nil
}

// Eval is a service-level API to evaluate a subject.
//
// If id is empty, every Table in the namespace evaluates the subject.
// The Outcomes are returned by Table id.  A Table that fails gets no
// Outcome, and the first failure is returned as the error.
func (s *Service) Eval(ctx context.Context, ns string, id string, subject interface{}) (map[string]*core.Outcome, error) {

	log.Printf("Service.Eval %s %s %s", ns, id, JS(subject))

	s.InSubs.Do(ns, subject)

	sw := NewStopwatch("eval")
	defer sw.StopLog()

	n, err := s.findNamespace(ctx, ns)
	if err != nil {
		return nil, err
	}

	n.RLock()
	ids := make([]string, 0, len(n.Tables))
	if id == "" {
		for id := range n.Tables {
			ids = append(ids, id)
		}
		sort.Strings(ids)
	} else {
		if _, have := n.Tables[id]; !have {
			n.RUnlock()
			return nil, fmt.Errorf(`couldn't find table "%s" in "%s"`, id, ns)
		}
		ids = append(ids, id)
	}
	tables := make([]*core.Table, len(ids))
	for i, id := range ids {
		tables[i] = n.Tables[id].Table()
	}
	n.RUnlock()

	var (
		outcomes = make(map[string]*core.Outcome, len(ids))
		first    error
	)

	for i, t := range tables {
		o, err := t.Eval(ctx, subject)
		if err != nil {
			log.Printf("Service.Eval %s/%s error %s", ns, ids[i], err)
			if first == nil {
				first = err
			}
			continue
		}
		outcomes[ids[i]] = o
		if o.Events != nil {
			for _, x := range o.Emitted {
				s.OutSubs.Do(ns, x)
			}
		}
	}

	return outcomes, first
}
