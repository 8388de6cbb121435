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

package tools

import (
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/Comcast/casematch/core"

	"github.com/jsccast/yaml"
)

var inlinePattern = regexp.MustCompile(`(?s)(.*?)(%inline *\("([^"]*)"\))`)

// Inline replaces '%inline("NAME")' with f(NAME).
func Inline(bs []byte, f func(string) ([]byte, error)) ([]byte, error) {
	i := 0
	acc := make([]byte, 0, len(bs))
	for {
		part := inlinePattern.FindSubmatch(bs[i:])
		if part == nil {
			acc = append(acc, bs[i:]...)
			break
		}
		i += len(part[0])
		acc = append(acc, part[1]...)
		replacement, err := f(string(part[3]))
		if err != nil {
			return nil, err
		}
		logf("inlining %s (%d bytes)", part[3], len(replacement))
		acc = append(acc, replacement...)
	}

	return acc, nil
}

func readerIn(dir string) func(string) ([]byte, error) {
	return func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name))
	}
}

// ReadFileWithInlines is a replacement for os.ReadFile that adds
// automatic Inline()ing based on the directory obtained from the
// filename.
//
// '%inline("NAME")' is replaced with ReadFile(NAME).
func ReadFileWithInlines(filename string) ([]byte, error) {
	bs, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Inline(bs, readerIn(filepath.Dir(filename)))
}

// ReadAllWithInlines is a replacement for io.ReadAll that adds
// automatic Inline()ing based on the given directory.
//
// '%inline("NAME")' is replaced with ReadFile(NAME).
func ReadAllWithInlines(in io.Reader, dir string) ([]byte, error) {
	bs, err := io.ReadAll(in)
	if err != nil {
		return nil, err
	}
	return Inline(bs, readerIn(dir))
}

// ParseTable parses YAML (or JSON) into an uncompiled Table.
func ParseTable(bs []byte) (*core.Table, error) {
	var t core.Table
	if err := yaml.Unmarshal(bs, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// ReadTable reads an uncompiled Table from a YAML (or JSON) file.
// Inlines are processed relative to the file's directory, so a guard
// can be written as
//
//	guard:
//	  interpreter: ecmascript
//	  source: |-
//	    %inline("guards/even.js")
func ReadTable(filename string) (*core.Table, error) {
	bs, err := ReadFileWithInlines(filename)
	if err != nil {
		return nil, err
	}
	return ParseTable(bs)
}

func keysOf(m map[string]interface{}) []string {
	acc := make([]string, 0, len(m))
	for k := range m {
		acc = append(acc, k)
	}
	sort.Strings(acc)
	return acc
}
