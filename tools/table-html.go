package tools

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters/noop"
	"github.com/Comcast/casematch/match"
	"github.com/Comcast/casematch/matchers"
	. "github.com/Comcast/casematch/util/testutil"

	md "github.com/russross/blackfriday/v2"
)

// RenderTableHTML writes an HTML fragment that documents the Table.
//
// Docs are Markdown.
func RenderTableHTML(t *core.Table, out io.Writer) error {
	f := func(format string, args ...interface{}) {
		fmt.Fprintf(out, format+"\n", args...)
	}

	f(`<div class="tableDoc doc">%s</div>`, md.Run([]byte(t.Doc)))

	if names := paramNames(t); 0 < len(names) {
		f(`<div class="params"><table>`)
		for _, name := range names {
			f(`<tr><td><code>^%s</code></td><td>`, html.EscapeString(name))
			spec, have := t.ParamSpecs[name]
			if have && spec.Doc != "" {
				f(`<div class="paramDoc doc">%s</div>`, md.Run([]byte(spec.Doc)))
			}
			if x, given := t.Params[name]; given {
				f(`<div>value <code>%s</code></div>`, html.EscapeString(JS(x)))
			} else if have && spec.Default != nil {
				f(`<div>default <code>%s</code></div>`, html.EscapeString(JS(spec.Default)))
			}
			f(`</td></tr>`)
		}
		f(`</table></div>`)
	}

	f(`<div class="cases"><table>`)
	for i, c := range t.Cases {
		id := caseLabel(i, c)
		f(`<tr class="case"><td><div class="caseNum">%d</div></td><td>`, i)
		f(`<span id="%s" class="caseName">%s</span>`, html.EscapeString(id), html.EscapeString(id))
		if c.Doc != "" {
			f(`<div class="caseDoc doc">%s</div>`, md.Run([]byte(c.Doc)))
		}
		f(`<table>`)
		if c.Pattern != "" {
			f(`<tr><td></td><td>pattern</td>`)
			f(`<td><code>%s</code></td></tr>`, html.EscapeString(c.Pattern))
		}
		if c.Node != nil {
			f(`<tr><td></td><td>tree</td>`)
			f(`<td><div class="code"><pre>%s</pre></div></td></tr>`, html.EscapeString(match.Tree(c.Node)))
		}
		if c.GuardSource != nil {
			f(`<tr><td></td><td>guard</td>`)
			f(`<td><div class="code"><pre>%s</pre></div></td></tr>`, html.EscapeString(guardText(c.GuardSource)))
		}
		if c.Emit != nil {
			f(`<tr><td></td><td>emit</td>`)
			f(`<td><code>%s</code></td></tr>`, html.EscapeString(JS(c.Emit)))
		}
		f(`</table>`)
		f(`</td></tr>`)
	}
	f(`</table></div>`)

	return nil
}

// RenderTablePage writes a complete HTML page for the Table.
func RenderTablePage(t *core.Table, out io.Writer, cssFiles []string) error {

	if cssFiles == nil {
		cssFiles = []string{"/static/table-html.css"}
	}

	fmt.Fprintf(out, `<!DOCTYPE html>
<meta charset="utf-8">
<html>
  <head>
  <title>%s</title>
`, html.EscapeString(t.Name))

	for _, cssFile := range cssFiles {
		fmt.Fprintf(out, "  <link href=\"%s\" rel=\"stylesheet\">\n", cssFile)
	}

	fmt.Fprintf(out, `
  </head>
  <body>
    <h1>%s</h1>
`, html.EscapeString(t.Name))

	if err := RenderTableHTML(t, out); err != nil {
		return err
	}

	fmt.Fprintf(out, `
  </body>
</html>
`)

	return nil
}

// ReadAndRenderTablePage reads a Table from the file, compiles it
// with silent no-op guards, and renders the page.
func ReadAndRenderTablePage(ctx context.Context, filename string, cssFiles []string, out io.Writer) error {
	t, err := ReadTable(filename)
	if err != nil {
		return err
	}

	interpreters := noop.InterpretersFor(t, &noop.Interpreter{Silent: true})

	if err = t.Compile(ctx, interpreters, matchers.Standard(), true); err != nil {
		return err
	}

	return RenderTablePage(t, out, cssFiles)
}

func paramNames(t *core.Table) []string {
	acc := make(map[string]interface{}, len(t.Params)+len(t.ParamSpecs))
	for name := range t.ParamSpecs {
		acc[name] = nil
	}
	for name := range t.Params {
		acc[name] = nil
	}
	return keysOf(acc)
}
