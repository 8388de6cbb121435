package main

import (
	"sync"
)

// Hook receives a subject (for InSubs) or an emitted message (for
// OutSubs).
type Hook func(interface{})

// Subs holds Hooks by namespace.  A Hook is registered under an id
// (one per listener) so it can be removed later.
type Subs struct {
	sync.Mutex
	hooks map[string]map[string]Hook
}

func NewSubs() *Subs {
	return &Subs{
		hooks: make(map[string]map[string]Hook, 32),
	}
}

func (s *Subs) Add(ns, id string, h Hook) {
	s.Lock()
	hooks, have := s.hooks[ns]
	if !have {
		hooks = make(map[string]Hook, 4)
		s.hooks[ns] = hooks
	}
	hooks[id] = h
	s.Unlock()
}

func (s *Subs) Rem(ns, id string) {
	s.Lock()
	s.rem(ns, id)
	s.Unlock()
}

func (s *Subs) rem(ns, id string) {
	if hooks, have := s.hooks[ns]; have {
		delete(hooks, id)
		if len(hooks) == 0 {
			delete(s.hooks, ns)
		}
	}
}

// RemAll removes the listener's Hooks from every namespace.
func (s *Subs) RemAll(id string) {
	s.Lock()
	for ns := range s.hooks {
		s.rem(ns, id)
	}
	s.Unlock()
}

func (s *Subs) Do(ns string, x interface{}) {
	var acc []Hook
	s.Lock()
	if hooks, have := s.hooks[ns]; have {
		acc = make([]Hook, 0, len(hooks))
		for _, h := range hooks {
			acc = append(acc, h)
		}
	}
	s.Unlock()
	for _, h := range acc {
		h(x)
	}
}
