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
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Comcast/casematch/core"
)

type MermaidOpts struct {
	// ShowPatterns will result in a case label that includes the
	// case's pattern.
	ShowPatterns bool `json:"showPatterns"`

	// GuardFill is the fill color of for guarded cases.  Does not
	// apply if GuardClass is set.
	GuardFill string `json:"guardFill,omitempty"`

	// GuardClass will be the CSS class for guarded cases.
	GuardClass string `json:"guardClass,omitempty"`

	// ShapePatterns renders the pattern's Shape as JSON rather
	// than the pattern's source.
	ShapePatterns bool `json:"shapePatterns,omitempty"`
}

// Mermaid makes a Mermaid (https://mermaidjs.github.io/) input file
// for the given Table.
func Mermaid(t *core.Table, w io.WriteCloser, opts *MermaidOpts) error {

	if opts == nil {
		opts = &MermaidOpts{
			ShowPatterns: true,
			GuardFill:    "#bcf2db",
		}
	}

	if !t.Compiled() {
		return &core.TableNotCompiled{Table: t}
	}

	logf("processing %d cases", len(t.Cases))

	fmt.Fprintf(w, "graph TB\n")
	fmt.Fprintf(w, "  subject((\"%s\"))\n", quote(t.Name))

	prev := "subject"
	for i, c := range t.Cases {
		nid := fmt.Sprintf("c%d", i)
		label := quote(caseLabel(i, c))

		if opts.ShowPatterns {
			pat := c.Pattern
			if opts.ShapePatterns || pat == "" {
				js, err := json.Marshal(Shape(c.Node))
				if err != nil {
					return err
				}
				pat = string(js)
			}
			label += "<br/><pre>" + quote(pat) + "</pre>"
		}

		if c.Guard == nil {
			fmt.Fprintf(w, "  %s(\"%s\")\n", nid, label)
		} else {
			fmt.Fprintf(w, "  %s[\"%s\"]\n", nid, label)
			if opts.GuardClass != "" {
				fmt.Fprintf(w, "  class %s %s\n", nid, opts.GuardClass)
			} else if opts.GuardFill != "" {
				fmt.Fprintf(w, "  style %s fill:%s\n", nid, opts.GuardFill)
			}
		}

		if prev == "subject" {
			fmt.Fprintf(w, "  %s --> %s\n", prev, nid)
		} else {
			fmt.Fprintf(w, "  %s -- else --> %s\n", prev, nid)
		}
		prev = nid
	}

	fmt.Fprintf(w, "  exhausted{{\"exhausted\"}}\n")
	if prev == "subject" {
		fmt.Fprintf(w, "  %s --> exhausted\n", prev)
	} else {
		fmt.Fprintf(w, "  %s -- else --> exhausted\n", prev)
	}

	fmt.Fprintf(w, "\n")
	logf("mermaid gen done")

	return w.Close()
}

func quote(s string) string {
	return strings.Replace(s, `"`, `'`, -1)
}
