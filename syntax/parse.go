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

// Package syntax parses the textual pattern language.
//
// The language looks like Python literals:
//
//	_                    the wildcard
//	42, -1.5, "s", `s`   constants
//	true, false, null    constants (also True, False, None)
//	x                    a variable
//	^x                   a pin: equal to the committed value of x
//	(a, b), [a, b]       sequences (and "a, b" at the top level)
//	{1, 2}               a set
//	{"k": v}             a mapping
//	(1, *rest, 3)        a sequence with a rest
//	{1, *rest}           a set with a rest
//	{"k": v, **rest}     a mapping with a rest
//	Name(a, k=v)         a constructor
//	set()                the empty set
//
// A spread (*x or **x) of a pin or a literal splices its elements
// (or pairs) into the enclosing pattern.  A spread of a plain name
// is the rest.
package syntax

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"text/scanner"

	"github.com/Comcast/casematch/match"
)

// SyntaxError reports a problem with pattern source.
//
// When the problem is a construction error from package match, Err
// is that error.
type SyntaxError struct {
	Source string
	Offset int
	Msg    string
	Err    error
}

func (e *SyntaxError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	return fmt.Sprintf("syntax error at offset %d in %q: %s", e.Offset, e.Source, msg)
}

func (e *SyntaxError) Unwrap() error {
	return e.Err
}

// Parse parses pattern source.
//
// Names are resolved with the given Env.  A nil Env gets a new one
// with no Factories.
func Parse(src string, env *Env) (match.Node, error) {
	if env == nil {
		env = NewEnv(nil)
	}
	p := newParser(src, env)
	n, err := p.parseTop()
	if err != nil {
		return nil, err
	}
	if p.err != nil {
		return nil, p.err
	}
	return n, nil
}

// MustParse panics if Parse returns an error.
func MustParse(src string, env *Env) match.Node {
	n, err := Parse(src, env)
	if err != nil {
		panic(err)
	}
	return n
}

type parser struct {
	src string
	s   scanner.Scanner
	env *Env

	tok  rune
	text string
	at   int

	// err is the first error from the scanner.
	err error
}

func newParser(src string, env *Env) *parser {
	p := &parser{
		src: src,
		env: env,
	}
	p.s.Init(strings.NewReader(src))
	p.s.Mode = scanner.ScanIdents | scanner.ScanInts | scanner.ScanFloats |
		scanner.ScanStrings | scanner.ScanRawStrings |
		scanner.ScanComments | scanner.SkipComments
	p.s.Error = func(s *scanner.Scanner, msg string) {
		if p.err == nil {
			p.err = &SyntaxError{
				Source: src,
				Offset: s.Pos().Offset,
				Msg:    msg,
			}
		}
	}
	p.next()
	return p
}

func (p *parser) next() {
	p.tok = p.s.Scan()
	p.text = p.s.TokenText()
	p.at = p.s.Position.Offset
}

func (p *parser) errorf(format string, args ...interface{}) error {
	if p.err != nil {
		return p.err
	}
	return &SyntaxError{
		Source: p.src,
		Offset: p.at,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (p *parser) wrap(at int, err error) error {
	if p.err != nil {
		return p.err
	}
	return &SyntaxError{
		Source: p.src,
		Offset: at,
		Err:    err,
	}
}

func (p *parser) describe() string {
	if p.tok == scanner.EOF {
		return "end of pattern"
	}
	return strconv.Quote(p.text)
}

// item is a parsed element of a container.
type item struct {
	at   int
	node match.Node

	// stars is 1 for *x and 2 for **x.
	stars int

	// key is the key of a mapping pair.
	key interface{}
}

func (p *parser) parseTop() (match.Node, error) {
	if p.tok == scanner.EOF {
		return nil, p.errorf("empty pattern")
	}
	items, trailing, err := p.parseSeqItems(scanner.EOF)
	if err != nil {
		return nil, err
	}
	if len(items) == 1 && items[0].stars == 0 && !trailing {
		return items[0].node, nil
	}
	return p.buildSequence(items)
}

func (p *parser) parseExpr() (match.Node, error) {
	at := p.at
	switch p.tok {
	case scanner.EOF:
		return nil, p.errorf("unexpected end of pattern")

	case scanner.Int, scanner.Float:
		return p.parseNumber("")

	case '-':
		p.next()
		if p.tok != scanner.Int && p.tok != scanner.Float {
			return nil, p.errorf("expected a number after '-'")
		}
		return p.parseNumber("-")

	case scanner.String, scanner.RawString:
		s, err := strconv.Unquote(p.text)
		if err != nil {
			return nil, p.wrap(at, err)
		}
		p.next()
		return match.NewConstant(s), nil

	case '^':
		p.next()
		if p.tok != scanner.Ident {
			return nil, p.errorf("expected a name after '^'")
		}
		name := p.text
		p.next()
		return match.NewPin(p.env.Var(name)), nil

	case scanner.Ident:
		name := p.text
		p.next()
		return p.afterName(name, at)

	case '(':
		p.next()
		items, trailing, err := p.parseSeqItems(')')
		if err != nil {
			return nil, err
		}
		if len(items) == 1 && items[0].stars == 0 && !trailing {
			// Just parens.
			return items[0].node, nil
		}
		return p.buildSequence(items)

	case '[':
		p.next()
		items, _, err := p.parseSeqItems(']')
		if err != nil {
			return nil, err
		}
		return p.buildSequence(items)

	case '{':
		p.next()
		return p.parseBraces(at)
	}

	return nil, p.errorf("unexpected %s", p.describe())
}

func (p *parser) parseNumber(sign string) (match.Node, error) {
	at := p.at
	text := sign + p.text
	tok := p.tok
	p.next()
	if tok == scanner.Int {
		n, err := strconv.ParseInt(text, 0, 64)
		if err != nil {
			return nil, p.wrap(at, err)
		}
		return match.NewConstant(int(n)), nil
	}
	f, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return nil, p.wrap(at, err)
	}
	return match.NewConstant(f), nil
}

// afterName continues after a name that has already been consumed.
func (p *parser) afterName(name string, at int) (match.Node, error) {
	if p.tok == '(' {
		p.next()
		return p.parseCall(name, at)
	}
	switch name {
	case "_":
		return match.Any, nil
	case "true", "True":
		return match.NewConstant(true), nil
	case "false", "False":
		return match.NewConstant(false), nil
	case "null", "None", "nil":
		return match.NewConstant(nil), nil
	}
	return match.NewVariable(p.env.Var(name)), nil
}

// parseSeqItems parses comma-separated elements up to the closing
// token, which is consumed.  Reports whether there was a trailing
// comma.
func (p *parser) parseSeqItems(close rune) ([]item, bool, error) {
	var (
		items    []item
		trailing bool
	)
	for p.tok != close {
		it := item{at: p.at}
		if p.tok == '*' {
			p.next()
			if p.tok == '*' {
				return nil, false, p.errorf("'**' can only be used in a mapping or call")
			}
			it.stars = 1
		}
		n, err := p.parseExpr()
		if err != nil {
			return nil, false, err
		}
		it.node = n
		items = append(items, it)

		trailing = false
		if p.tok == ',' {
			p.next()
			trailing = true
			continue
		}
		if p.tok != close {
			return nil, false, p.errorf("expected ',' or %s but found %s", closer(close), p.describe())
		}
	}
	if close != scanner.EOF {
		p.next()
	}
	return items, trailing, nil
}

func closer(tok rune) string {
	if tok == scanner.EOF {
		return "end of pattern"
	}
	return strconv.QuoteRune(tok)
}

func (p *parser) buildSequence(items []item) (match.Node, error) {
	starred := false
	for _, it := range items {
		if it.stars != 0 {
			starred = true
			break
		}
	}
	if !starred {
		ns := make([]match.Node, len(items))
		for i, it := range items {
			ns[i] = it.node
		}
		return match.NewSequence(ns...), nil
	}

	var (
		segs []match.Node
		run  []match.Node
	)
	flush := func() {
		if run != nil {
			segs = append(segs, match.NewSequence(run...))
			run = nil
		}
	}
	for _, it := range items {
		if it.stars == 0 {
			run = append(run, it.node)
			continue
		}
		flush()
		it.node = anonymous(it.node)
		switch it.node.(type) {
		case *match.Variable, *match.Pin, *match.Sequence, *match.Constant:
			segs = append(segs, it.node)
		default:
			return nil, &SyntaxError{
				Source: p.src,
				Offset: it.at,
				Msg:    "can't spread " + it.node.String() + " into a sequence",
			}
		}
	}
	flush()

	n, err := match.NewSequenceWithRest(segs...)
	if err != nil {
		return nil, p.wrap(items[0].at, err)
	}
	return n, nil
}

// parseBraces parses a set or a mapping.  The '{' has been consumed.
func (p *parser) parseBraces(at int) (match.Node, error) {
	if p.tok == '}' {
		p.next()
		return match.NewMapping()
	}

	var (
		items   []item
		mapping bool
		decided bool
	)
	for p.tok != '}' {
		it := item{at: p.at}
		if p.tok == '*' {
			p.next()
			it.stars = 1
			if p.tok == '*' {
				p.next()
				it.stars = 2
			}
		}
		n, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		isPair := it.stars == 0 && p.tok == ':'
		isMapping := isPair || it.stars == 2
		if !decided {
			mapping, decided = isMapping, true
		}
		if mapping && !isMapping {
			return nil, &SyntaxError{Source: p.src, Offset: it.at, Msg: "expected a key/value pair"}
		}
		if !mapping && isMapping {
			return nil, &SyntaxError{Source: p.src, Offset: it.at, Msg: "unexpected key/value pair in a set"}
		}

		if isPair {
			key, ok := literal(n)
			if !ok || !hashable(key) {
				return nil, &SyntaxError{Source: p.src, Offset: it.at, Msg: "a key must be a scalar literal"}
			}
			p.next()
			v, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			it.key, it.node = key, v
		} else {
			it.node = n
		}
		items = append(items, it)

		if p.tok == ',' {
			p.next()
			continue
		}
		if p.tok != '}' {
			return nil, p.errorf("expected ',' or '}' but found %s", p.describe())
		}
	}
	p.next()

	if mapping {
		return p.buildMapping(at, items)
	}
	return p.buildSet(at, items)
}

func (p *parser) buildMapping(at int, items []item) (match.Node, error) {
	var (
		segs    []match.Node
		run     []match.Pair
		all     []match.Pair
		starred bool
	)
	flush := func() error {
		if run == nil {
			return nil
		}
		m, err := match.NewMapping(run...)
		if err != nil {
			return err
		}
		segs = append(segs, m)
		run = nil
		return nil
	}
	for _, it := range items {
		if it.stars == 0 {
			pair := match.Pair{Key: it.key, Value: it.node}
			run = append(run, pair)
			all = append(all, pair)
			continue
		}
		starred = true
		if err := flush(); err != nil {
			return nil, p.wrap(at, err)
		}
		it.node = anonymous(it.node)
		switch it.node.(type) {
		case *match.Variable, *match.Pin, *match.Mapping:
			segs = append(segs, it.node)
		default:
			return nil, &SyntaxError{
				Source: p.src,
				Offset: it.at,
				Msg:    "can't spread " + it.node.String() + " into a mapping",
			}
		}
	}

	if !starred {
		m, err := match.NewMapping(all...)
		if err != nil {
			return nil, p.wrap(at, err)
		}
		return m, nil
	}

	if err := flush(); err != nil {
		return nil, p.wrap(at, err)
	}
	m, err := match.NewMappingWithRest(segs...)
	if err != nil {
		return nil, p.wrap(at, err)
	}
	return m, nil
}

func (p *parser) buildSet(at int, items []item) (match.Node, error) {
	var (
		segs    []match.Node
		run     []match.Node
		all     []match.Node
		starred bool
	)
	flush := func() error {
		if run == nil {
			return nil
		}
		s, err := match.NewSet(run...)
		if err != nil {
			return err
		}
		segs = append(segs, s)
		run = nil
		return nil
	}
	for _, it := range items {
		n := valueOf(it.node)
		if it.stars == 0 {
			run = append(run, n)
			all = append(all, n)
			continue
		}
		starred = true
		if err := flush(); err != nil {
			return nil, p.wrap(it.at, err)
		}
		n = anonymous(n)
		switch n.(type) {
		case *match.Variable, *match.Pin, *match.Constant:
			segs = append(segs, n)
		default:
			return nil, &SyntaxError{
				Source: p.src,
				Offset: it.at,
				Msg:    "can't spread " + it.node.String() + " into a set",
			}
		}
	}

	if !starred {
		s, err := match.NewSet(all...)
		if err != nil {
			return nil, p.wrap(at, err)
		}
		return s, nil
	}

	if err := flush(); err != nil {
		return nil, p.wrap(at, err)
	}
	s, err := match.NewSetWithRest(segs...)
	if err != nil {
		return nil, p.wrap(at, err)
	}
	return s, nil
}

// parseCall parses constructor arguments.  The '(' has been consumed.
func (p *parser) parseCall(name string, at int) (match.Node, error) {
	var (
		args   []match.Node
		kwargs []match.Pair
	)
	for p.tok != ')' {
		argAt := p.at
		switch {
		case p.tok == '*':
			p.next()
			stars := 1
			if p.tok == '*' {
				p.next()
				stars = 2
			}
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			if stars == 1 {
				es, ok := match.Elements(valueOf(n))
				if !ok {
					return nil, &SyntaxError{Source: p.src, Offset: argAt, Msg: "can't spread " + n.String() + " into arguments"}
				}
				args = append(args, es...)
			} else {
				ps, ok := match.Items(valueOf(n))
				if !ok {
					return nil, &SyntaxError{Source: p.src, Offset: argAt, Msg: "can't spread " + n.String() + " into keyword arguments"}
				}
				for _, pair := range ps {
					k, is := pair.Key.(string)
					if !is {
						return nil, &SyntaxError{Source: p.src, Offset: argAt, Msg: "keyword arguments must have string keys"}
					}
					kwargs = append(kwargs, match.Pair{Key: k, Value: pair.Value})
				}
			}

		case p.tok == scanner.Ident:
			id := p.text
			p.next()
			if p.tok == '=' {
				p.next()
				v, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				kwargs = append(kwargs, match.Pair{Key: id, Value: v})
				break
			}
			n, err := p.afterName(id, argAt)
			if err != nil {
				return nil, err
			}
			args = append(args, n)

		default:
			n, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, n)
		}

		if p.tok == ',' {
			p.next()
			continue
		}
		if p.tok != ')' {
			return nil, p.errorf("expected ',' or ')' but found %s", p.describe())
		}
	}
	p.next()

	f, have := p.env.Factory(name)
	if !have {
		if name == "set" && len(args) == 0 && len(kwargs) == 0 {
			return match.NewSet()
		}
		return nil, &SyntaxError{Source: p.src, Offset: at, Msg: "unknown constructor " + strconv.Quote(name)}
	}
	c, err := match.NewConstructor(name, f, args, kwargs)
	if err != nil {
		return nil, p.wrap(at, err)
	}
	return c, nil
}

// anonymous turns a spread wildcard into a rest that isn't
// reported.
func anonymous(n match.Node) match.Node {
	if _, is := n.(*match.Wildcard); is {
		return match.NewVariable(match.NewVar(match.Anonymous))
	}
	return n
}

// literal returns the value of a pattern that has no variables,
// wildcards, pins, or constructors.
func literal(n match.Node) (interface{}, bool) {
	switch vv := n.(type) {
	case *match.Constant:
		return vv.Value, true
	case *match.Sequence:
		acc := make([]interface{}, len(vv.Elems))
		for i, e := range vv.Elems {
			x, ok := literal(e)
			if !ok {
				return nil, false
			}
			acc[i] = x
		}
		return acc, true
	case *match.Set:
		acc := make(match.SetValue, len(vv.Elems))
		for _, e := range vv.Elems {
			x, ok := literal(e)
			if !ok || !hashable(x) {
				return nil, false
			}
			acc[x] = struct{}{}
		}
		return acc, true
	case *match.Mapping:
		acc := make(map[interface{}]interface{}, len(vv.Pairs))
		for _, pair := range vv.Pairs {
			x, ok := literal(pair.Value)
			if !ok {
				return nil, false
			}
			acc[pair.Key] = x
		}
		return acc, true
	}
	return nil, false
}

func hashable(x interface{}) bool {
	if x == nil {
		return true
	}
	return reflect.ValueOf(x).Comparable()
}

// valueOf folds a literal into a Constant.  Other Nodes are returned
// as is.
func valueOf(n match.Node) match.Node {
	if _, is := n.(*match.Constant); is {
		return n
	}
	if x, ok := literal(n); ok {
		return match.NewConstant(x)
	}
	return n
}
