// Package store provides persistence for Tables.
//
// Tables are grouped into namespaces (one per tenant, say).  A
// Table is stored in its source form, so it must be compiled after
// it's read.
package store

import (
	"context"
	"errors"

	"github.com/Comcast/casematch/core"
)

// NotFound is returned when a namespace doesn't exist.
var NotFound = errors.New("not found")

// TableState is a presentation of a Table as stored in a Storage
// system.
type TableState struct {
	// Id is the id for the Table within its namespace.
	Id string `json:"id,omitempty"`

	Table *core.Table `json:"table,omitempty" yaml:"table,omitempty"`

	// Updated is the time (RFC3339Nano) of the last write.
	Updated string `json:"updated,omitempty" yaml:"updated,omitempty"`

	// Deleted indicates that this Table should be removed.
	//
	// Yes, this flag is a hack.
	Deleted bool `json:"-" yaml:"-"`
}

// Storage is a persistence interface for Tables.
type Storage interface {
	Open(ctx context.Context) error

	Close(ctx context.Context) error

	MakeNamespace(ctx context.Context, ns string) error

	RemNamespace(ctx context.Context, ns string) error

	// GetTables returns the namespace's Tables ordered by id.
	GetTables(ctx context.Context, ns string) ([]*TableState, error)

	// WriteTables writes (or, if Deleted, removes) the given
	// Tables.  The namespace is created if necessary.
	WriteTables(ctx context.Context, ns string, tss []*TableState) error
}

// AsTableStates makes TableStates from Tables.  A Table's Id is used
// as its id.
func AsTableStates(ts ...*core.Table) []*TableState {
	acc := make([]*TableState, 0, len(ts))
	for _, t := range ts {
		acc = append(acc, &TableState{
			Id:      t.Id,
			Table:   t,
			Updated: core.Timestamp(),
		})
	}
	return acc
}

// AsTables returns the stored Tables (uncompiled) by id.
func AsTables(tss []*TableState) map[string]*core.Table {
	acc := make(map[string]*core.Table, len(tss))
	for _, ts := range tss {
		if ts.Table == nil {
			continue
		}
		t := ts.Table
		if t.Id == "" {
			t.Id = ts.Id
		}
		acc[ts.Id] = t
	}
	return acc
}
