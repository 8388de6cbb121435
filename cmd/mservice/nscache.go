package main

import (
	"sync"
	"time"

	"github.com/Comcast/casematch/core"
)

// Namespace holds the compiled Tables of one namespace along with
// their sources.
type Namespace struct {
	sync.RWMutex

	Id string

	// Tables are the compiled Tables by id.  An UpdatableTable
	// lets a PutTable replace a Table without disturbing
	// evaluations in progress.
	Tables map[string]*core.UpdatableTable

	sources map[string]*core.Table
}

func NewNamespace(id string) *Namespace {
	return &Namespace{
		Id:      id,
		Tables:  make(map[string]*core.UpdatableTable, 8),
		sources: make(map[string]*core.Table, 8),
	}
}

type NamespaceCacheEntry struct {
	Namespace *Namespace
	Expires   time.Time
}

func (e *NamespaceCacheEntry) Get() *Namespace {
	if time.Now().After(e.Expires) {
		return nil
	}
	return e.Namespace
}

// NamespaceCache holds recently used Namespaces.
//
// Not safe for concurrent use.  The Service's lock protects it.
type NamespaceCache struct {
	// Only expires entries when they are fetched.
	TTL     time.Duration
	Entries map[string]*NamespaceCacheEntry
}

func NewNamespaceCache(ttl time.Duration, size int) *NamespaceCache {
	return &NamespaceCache{
		TTL:     ttl,
		Entries: make(map[string]*NamespaceCacheEntry, size),
	}
}

func (c *NamespaceCache) Put(ns string, n *Namespace) {
	c.Entries[ns] = &NamespaceCacheEntry{
		Namespace: n,
		Expires:   time.Now().Add(c.TTL),
	}
}

func (c *NamespaceCache) Rem(ns string) {
	delete(c.Entries, ns)
}

func (c *NamespaceCache) Get(ns string) *Namespace {
	e, have := c.Entries[ns]
	if !have {
		return nil
	}
	if n := e.Get(); n != nil {
		return n
	}
	delete(c.Entries, ns)
	return nil
}
