package ecmascript

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// LibraryProvider resolves a library name into library source.
//
// For a multitenant service, a LibraryProvider might need to know
// the tenant.  With trepidation, perhaps just use a Value in the
// ctx.
type LibraryProvider func(ctx context.Context, i *Interpreter, name string) (string, error)

// ProvideLibrary resolves the library name into a library.
func (i *Interpreter) ProvideLibrary(ctx context.Context, name string) (string, error) {
	if i.LibraryProvider != nil {
		return i.LibraryProvider(ctx, i, name)
	}
	return DefaultLibraryProvider(ctx, i, name)
}

var DefaultLibraryProvider = MakeFileLibraryProvider(".")

// MakeFileLibraryProvider makes a LibraryProvider that supports
// (barely) names that are URLs with protocols of "file", "http", and
// "https".  A file name is relative to the given directory.
//
// There currently is no additional control when using HTTP/HTTPS.
func MakeFileLibraryProvider(dir string) LibraryProvider {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		parts := strings.SplitN(name, "://", 2)
		if 2 != len(parts) {
			return "", fmt.Errorf("bad link '%s'", name)
		}
		switch parts[0] {
		case "file":
			filename := filepath.Clean(parts[1])
			if strings.HasPrefix(filename, "..") || filepath.IsAbs(filename) {
				return "", fmt.Errorf("library '%s' is outside %s", name, dir)
			}
			bs, err := os.ReadFile(filepath.Join(dir, filename))
			if err != nil {
				return "", err
			}
			return string(bs), nil
		case "http", "https":
			req, err := http.NewRequestWithContext(ctx, "GET", name, nil)
			if err != nil {
				return "", err
			}
			resp, err := http.DefaultClient.Do(req)
			if err != nil {
				return "", err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return "", fmt.Errorf("library fetch status %s %d",
					resp.Status, resp.StatusCode)
			}
			bs, err := io.ReadAll(resp.Body)
			if err != nil {
				return "", err
			}
			return string(bs), nil
		default:
			return "", fmt.Errorf("unknown protocol '%s'", parts[0])
		}
	}
}

func MakeMapLibraryProvider(srcs map[string]string) LibraryProvider {
	return func(ctx context.Context, i *Interpreter, name string) (string, error) {
		src, have := srcs[name]
		if !have {
			return "", fmt.Errorf("undefined library '%s'", name)
		}
		return src, nil
	}
}

// parseSource looks into the given map to try to find "requires" and
// "code" properties.
func parseSource(vv map[string]interface{}) (code string, libs []string, err error) {
	s, is := vv["code"].(string)
	if !is {
		err = errors.New("bad ECMAScript guard code")
		return
	}
	code = s

	switch vv := vv["requires"].(type) {
	case nil:
	case string:
		libs = []string{vv}
	case []string:
		libs = vv
	case []interface{}:
		libs = make([]string, 0, len(vv))
		for _, x := range vv {
			s, is := x.(string)
			if !is {
				err = errors.New("bad library")
				return
			}
			libs = append(libs, s)
		}
	default:
		err = fmt.Errorf("bad requires (%T)", vv)
	}

	return
}

// AsSource extracts code and the names of required libraries.
//
// The source is either a string (just code) or a map with "code" and
// "requires" properties.  The YAML parser https://github.com/go-yaml/yaml
// will return map[interface{}]interface{}, which is supported so
// that others don't need to use https://github.com/jsccast/yaml.
func AsSource(src interface{}) (code string, libs []string, err error) {
	switch vv := src.(type) {
	case string:
		code = vv
		return
	case map[interface{}]interface{}:
		m := make(map[string]interface{})
		for k, v := range vv {
			str, ok := k.(string)
			if !ok {
				err = fmt.Errorf("bad src key (%T)", k)
				return
			}
			m[str] = v
		}
		return parseSource(m)
	case map[string]interface{}:
		return parseSource(vv)
	default:
		err = fmt.Errorf("bad ECMAScript source (%T)", src)
		return
	}
}

// InlineRequires generates new source code that replaces top-level
// require("name") statements with the libraries that those
// statements name.
//
// Goja can't currently support (easily) modification of ASTs or
// Programs; therefore, this function rewrites the given source based
// on the source's AST.  With this approach, guards that use
// libraries can still be precompiled when a Table is compiled.
func InlineRequires(ctx context.Context, src string, provider func(context.Context, string) (string, error)) (string, error) {

	// Parse as a function body, so that a guard can return.
	const prefix = "function guard() {\n"
	p, err := parser.ParseFile(nil, "", prefix+src+"\n}", 0, parser.WithDisableSourceMaps)
	if err != nil {
		// Let the compiler complain.
		return src, nil
	}
	if len(p.Body) != 1 {
		return src, nil
	}
	fd, is := p.Body[0].(*ast.FunctionDeclaration)
	if !is || fd.Function == nil || fd.Function.Body == nil {
		return src, nil
	}

	type required struct {
		from, to int
		name     string
	}

	requires := make([]required, 0, 8)

	for _, s := range fd.Function.Body.List {
		exps, is := s.(*ast.ExpressionStatement)
		if !is {
			continue
		}

		call, is := exps.Expression.(*ast.CallExpression)
		if !is {
			continue
		}

		id, is := call.Callee.(*ast.Identifier)
		if !is || id.Name != "require" {
			continue
		}
		if len(call.ArgumentList) != 1 {
			return "", fmt.Errorf("bad require args: %#v", call.ArgumentList)
		}

		arg := call.ArgumentList[0]
		lit, is := arg.(*ast.StringLiteral)
		if !is {
			return "", fmt.Errorf("bad require arg: %#v", arg)
		}

		// Idx values are 1-based.
		requires = append(requires, required{
			from: int(exps.Idx0()) - 1 - len(prefix),
			to:   int(exps.Idx1()) - 1 - len(prefix),
			name: string(lit.Value),
		})
	}

	if len(requires) == 0 {
		return src, nil
	}

	var b strings.Builder
	at := 0
	for _, r := range requires {
		lib, err := provider(ctx, r.name)
		if err != nil {
			return "", err
		}
		b.WriteString(src[at:r.from])
		b.WriteString(lib)
		b.WriteString("\n")
		at = r.to
	}
	b.WriteString(src[at:])

	return b.String(), nil
}
