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

package sio

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

const (
	// TallyExhausted is the Tally key for evaluations that no
	// Case won.
	TallyExhausted = "_exhausted"

	// TallyError is the Tally key for failed evaluations.
	TallyError = "_error"
)

// Tally counts Results by the name of the winning Case.
//
// Unnamed Cases are counted as "#N", where N is the Case's index.
type Tally map[string]int

// Add counts the Result.
func (t Tally) Add(r *Result) {
	switch {
	case r.Err != "":
		t[TallyError]++
	case r.Outcome == nil || r.Outcome.Case < 0:
		t[TallyExhausted]++
	case r.Name != "":
		t[r.Name]++
	default:
		t[fmt.Sprintf("#%d", r.Case)]++
	}
}

// JSONStore is a primitive facility to store a Tally as JSON in a
// file.
//
// Not glamorous or efficient.
type JSONStore struct {
	// TallyOutputFilename, if not empty, will be the filename
	// for writing the Tally as JSON.
	TallyOutputFilename string

	// TallyInputFilename optionally gives a filename that
	// contains a Tally to resume.
	TallyInputFilename string

	Tally Tally

	WG sync.WaitGroup

	sync.Mutex
}

// Update counts the given Result.
func (s *JSONStore) Update(r *Result) error {
	s.Lock()
	if s.Tally == nil {
		s.Tally = make(Tally)
	}
	s.Tally.Add(r)
	s.Unlock()

	return nil
}

// ReadTally reads TallyInputFilename (if given).
func (s *JSONStore) ReadTally(ctx context.Context) (Tally, error) {
	s.Lock()
	defer s.Unlock()

	s.Tally = make(Tally)
	if s.TallyInputFilename == "" {
		return s.Tally, nil
	}
	js, err := os.ReadFile(s.TallyInputFilename)
	if err != nil {
		return nil, err
	}
	if err = json.Unmarshal(js, &s.Tally); err != nil {
		return nil, err
	}
	return s.Tally, nil
}

// writeTally writes the Tally as JSON to TallyOutputFilename (if
// given).
func (s *JSONStore) writeTally(ctx context.Context) error {
	if s.TallyOutputFilename == "" {
		return nil
	}

	s.Lock()
	js, err := json.MarshalIndent(s.Tally, "", "  ")
	s.Unlock()

	if err != nil {
		return err
	}
	return os.WriteFile(s.TallyOutputFilename, js, 0644)
}
