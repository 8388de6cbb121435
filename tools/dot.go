package tools

// dot -Tpng g.dot > g.png

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/util"

	"gopkg.in/yaml.v2"
)

// logf logs when util.Logging is on.
var logf = util.Logf

// caseLabel names a case by its name or, failing that, by its
// position.
func caseLabel(i int, c *core.CaseSpec) string {
	if c.Name != "" {
		return c.Name
	}
	return fmt.Sprintf("#%d", i)
}

func htmlEscape(s string) string {
	s = strings.Replace(s, "&", `&amp;`, -1)
	s = strings.Replace(s, "<", `&lt;`, -1)
	s = strings.Replace(s, ">", `&gt;`, -1)
	return s
}

func guardText(g *core.GuardSource) string {
	if s, is := g.Source.(string); is {
		return s
	}
	js, err := json.Marshal(g.Source)
	if err != nil {
		return fmt.Sprintf("%#v", g.Source)
	}
	return string(js)
}

// Dot makes a Graphviz dot file for the given (compiled) Table.  Not
// a pretty dot file.
//
// The cases appear as a chain in the order that they are tried.  Each
// case node shows its pattern tree (as YAML) and its guard (if any).
//
// The optional outcome highlights the path to the winning case in
// red.
func Dot(t *core.Table, w io.WriteCloser, o *core.Outcome) error {

	if !t.Compiled() {
		return &core.TableNotCompiled{Table: t}
	}

	logf("processing %d cases", len(t.Cases))

	won := -1
	if o != nil && o.Status == core.Matched {
		won = o.Case
	}

	fmt.Fprintf(w, "digraph G {\n")
	fmt.Fprintf(w, `  graph [ordering=out,rankdir=TB,nodesep=0.3,ranksep=0.6]
  node [shape="record" style="rounded,filled"]
  edge [fontsize = "12"]
`)

	title := t.Name
	if title == "" {
		title = "table"
	}
	fmt.Fprintf(w, "  subject [shape=\"circle\", style=\"filled,bold\", fillcolor=\"#99ddc8\", label=<%s>]\n",
		htmlEscape(title))

	for i, c := range t.Cases {
		label := htmlEscape(caseLabel(i, c))
		if c.Doc != "" {
			doc := c.Doc
			if 40 < len(doc) {
				period := strings.Index(doc, ". ")
				if 0 < period {
					doc = doc[0 : period+1]
				}
			}
			label += "<BR/><FONT POINT-SIZE='8'>" + htmlEscape(doc) + "</FONT>"
		}

		if c.Node != nil {
			y, err := yaml.Marshal(Shape(c.Node))
			if err != nil {
				y = []byte(err.Error())
			}
			label += `<FONT POINT-SIZE="8"><BR/>` +
				strings.Replace(htmlEscape(string(y)), "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		}

		fillcolor := "#52aa5e"
		shape := "record"
		if c.GuardSource != nil {
			shape = "note"
			fillcolor = "#2d93ad"
			label += `<FONT POINT-SIZE="6">` +
				`<BR/>` + strings.Replace(htmlEscape(guardText(c.GuardSource))+"\n", "\n", `<BR ALIGN="LEFT"/>`, -1) +
				`</FONT>`
		} else if c.Guard != nil {
			shape = "note"
			fillcolor = "#2d93ad"
			label += `<BR ALIGN="LEFT"/>guarded<BR ALIGN="LEFT"/>`
		}

		color := "black"
		style := "filled"
		if i == won {
			color = "red"
			fillcolor = "#f98b8b"
			style += ",bold"
		}
		if c.Emit == nil {
			style += ",dashed"
		}

		fmt.Fprintf(w, "  c%d [shape=\"%s\", style=\"%s\", color=\"%s\", fillcolor=\"%s\", label=<%s> ]\n",
			i, shape, style, color, fillcolor, label)
	}

	fmt.Fprintf(w, "  exhausted [shape=\"doublecircle\", style=\"dashed\", label=\"exhausted\"]\n")

	edgeColor := func(to int) string {
		if won < 0 && o != nil {
			return "red"
		}
		if to <= won {
			return "red"
		}
		return "black"
	}

	if len(t.Cases) == 0 {
		fmt.Fprintf(w, "  subject -> exhausted [ color=\"%s\" ]\n", edgeColor(0))
	} else {
		fmt.Fprintf(w, "  subject -> c0 [ color=\"%s\" ]\n", edgeColor(0))
	}
	for i := range t.Cases {
		if i+1 < len(t.Cases) {
			fmt.Fprintf(w, "  c%d -> c%d [ color=\"%s\" label = <%d/%d else> ]\n",
				i, i+1, edgeColor(i+1), i+1, len(t.Cases))
		} else {
			fmt.Fprintf(w, "  c%d -> exhausted [ color=\"%s\" label = <else> ]\n",
				i, edgeColor(len(t.Cases)))
		}
	}

	fmt.Fprintf(w, "}\n")
	return w.Close()
}

// PNG generates a PNG image based on output from Dot.
//
// This function with write two files: basename.dot and basename.png,
// where the basename is the given string.
func PNG(t *core.Table, basename string, o *core.Outcome) (string, error) {
	dotname := basename + ".dot"
	pngname := basename + ".png"

	dotfile, err := os.Create(dotname)
	if err != nil {
		return pngname, err
	}
	if err := Dot(t, dotfile, o); err != nil {
		return pngname, err
	}
	cmd := exec.Command("dot", "-Tpng", "-Gstart=1", "-o", pngname, dotname)
	if err := cmd.Run(); err != nil {
		return pngname, err
	}
	return pngname, nil
}
