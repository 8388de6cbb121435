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
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja"
)

// MacroExpander runs a table (as plain data) through an ECMAScript
// function named 'expand'.
//
// The driver defines 'expand', and every '.js' file in the macro
// directory is loaded first so the driver can use what they define.
type MacroExpander struct {
	Driver   string
	MacroDir string

	JS *goja.Runtime
}

func (m *MacroExpander) Flags() *flag.FlagSet {
	flags := flag.NewFlagSet("expand", flag.ContinueOnError)
	flags.StringVar(&m.Driver, "driver", "driver.js", "file that defines 'expand'")
	flags.StringVar(&m.MacroDir, "macros", "macros", "directory of macro files")
	return flags
}

func (m *MacroExpander) init() error {
	m.JS = goja.New()
	env := make(map[string]interface{})
	m.JS.Set("_", env)

	env["log"] = func(x interface{}) interface{} {
		bs, err := json.Marshal(&x)
		if err != nil {
			return err
		}
		log.Printf("%s\n", bs)

		return x
	}

	return nil
}

func (m *MacroExpander) load(filename string) error {
	log.Printf("loading %s", filename)

	src, err := os.ReadFile(filename)
	if err != nil {
		return err
	}

	_, err = m.JS.RunScript(filename, string(src))
	return err
}

func (m *MacroExpander) loadMacros(dir string) error {
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}

	for _, file := range files {
		filename := file.Name()
		if file.IsDir() || !strings.HasSuffix(filename, ".js") {
			continue
		}
		if err = m.load(filepath.Join(dir, filename)); err != nil {
			return err
		}
	}

	return nil
}

// Expand calls the driver's 'expand' with x and returns what that
// function returns.
func (m *MacroExpander) Expand(x interface{}) (interface{}, error) {
	js, err := json.Marshal(&x)
	if err != nil {
		return nil, err
	}

	if err := m.init(); err != nil {
		return nil, err
	}

	if m.MacroDir != "" {
		if err := m.loadMacros(m.MacroDir); err != nil {
			return nil, err
		}
	}

	if err := m.load(m.Driver); err != nil {
		return nil, err
	}

	v, err := m.JS.RunString(fmt.Sprintf("expand(%s)", js))
	if err != nil {
		return nil, err
	}

	return v.Export(), nil
}
