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

package core

import (
	"errors"
	"sync/atomic"
)

// Tabler enables other things to manifest themselves as Tables.
//
// A Table is itself a Tabler.  An UpdatableTable is also a Tabler,
// but it's not itself a Table.
type Tabler interface {
	Table() *Table
}

// Table makes any Table a Tabler.
func (t *Table) Table() *Table {
	return t
}

// UpdatableTable is a Tabler with an underlying Table that can be
// changed at any time.
//
// A service can hand out an UpdatableTable and later swap in a new
// version of the Table without disturbing evaluations in progress.
type UpdatableTable struct {
	table atomic.Pointer[Table]
}

// NewUpdatableTable makes one with the given initial table, which can
// be changed later via SetTable.
func NewUpdatableTable(t *Table) *UpdatableTable {
	u := &UpdatableTable{}
	u.table.Store(t)
	return u
}

// SetTable atomically changes the underlying table.
//
// The table must be compiled.
func (u *UpdatableTable) SetTable(t *Table) error {
	if t == nil {
		return errors.New("nil table")
	}
	if !t.compiled {
		return &TableNotCompiled{t}
	}
	u.table.Store(t)
	return nil
}

// Table implements the Tabler interface.
func (u *UpdatableTable) Table() *Table {
	return u.table.Load()
}
