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
	"context"

	"github.com/Comcast/casematch/match"
)

// Scope holds the subjects of nested match sessions.
//
// The innermost subject is the current subject.  A Scope belongs to
// one goroutine.
type Scope struct {
	// Matcher is used for the Slots of each attempt.  Nil means
	// match.DefaultMatcher.
	Matcher *match.Matcher

	stack []interface{}
}

// NewScope makes an empty Scope.
func NewScope() *Scope {
	return &Scope{
		stack: make([]interface{}, 0, 4),
	}
}

// Enter makes x the current subject.
//
// The returned function restores the previous subject.  Call it
// exactly once, usually with defer.
func (s *Scope) Enter(x interface{}) (leave func()) {
	s.stack = append(s.stack, x)
	depth := len(s.stack)
	return func() {
		if len(s.stack) != depth {
			panic("core.Scope: subjects left out of order")
		}
		s.stack[depth-1] = nil
		s.stack = s.stack[:depth-1]
	}
}

// With calls f with x as the current subject.
//
// The previous subject is restored when f returns or panics.
func (s *Scope) With(x interface{}, f func() error) error {
	leave := s.Enter(x)
	defer leave()
	return f()
}

// Subject returns the current subject.
func (s *Scope) Subject() (interface{}, error) {
	if len(s.stack) == 0 {
		return nil, EmptyScope
	}
	return s.stack[len(s.stack)-1], nil
}

// Depth returns the number of subjects.
func (s *Scope) Depth() int {
	return len(s.stack)
}

func (s *Scope) matcher() *match.Matcher {
	if s == nil || s.Matcher == nil {
		return match.DefaultMatcher
	}
	return s.Matcher
}

type ctxKey int

const (
	scopeKey ctxKey = iota
	slotsKey
)

// WithScope returns a Context that carries the Scope.
func WithScope(ctx context.Context, s *Scope) context.Context {
	return context.WithValue(ctx, scopeKey, s)
}

// ScopeFrom returns the Scope carried by the Context, if any.
func ScopeFrom(ctx context.Context) (*Scope, bool) {
	s, is := ctx.Value(scopeKey).(*Scope)
	return s, is
}

// withSlots returns a Context that carries the Slots of the
// candidate that a Guard is considering.
func withSlots(ctx context.Context, ss *match.Slots) context.Context {
	return context.WithValue(ctx, slotsKey, ss)
}

// SlotsFrom returns the Slots of the candidate that a Guard is
// considering.
//
// A Guard written in Go can use these Slots to get at values by Var
// rather than by name.
func SlotsFrom(ctx context.Context) (*match.Slots, bool) {
	ss, is := ctx.Value(slotsKey).(*match.Slots)
	return ss, is
}
