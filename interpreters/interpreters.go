// Package interpreters assembles the standard guard interpreters.
package interpreters

import (
	"github.com/Comcast/casematch/core"
	"github.com/Comcast/casematch/interpreters/ecmascript"
	"github.com/Comcast/casematch/interpreters/noop"
	"github.com/Comcast/casematch/syntax"
)

// Standard returns the standard interpreters.
//
// The factories, which can be nil, resolve constructor calls in the
// patterns that extended ECMAScript guards give to _.match.
func Standard(factories syntax.Factories) core.InterpretersMap {
	is := core.NewInterpretersMap()

	es := ecmascript.NewInterpreter()
	is["ecmascript"] = es
	is["ecmascript-5.1"] = es

	ext := ecmascript.NewInterpreter()
	ext.Extended = true
	ext.Factories = factories
	is["ecmascript-ext"] = ext
	is["ecmascript-5.1-ext"] = ext
	is["goja"] = ext // For backwards compatibility

	libs := ecmascript.NewInterpreter()
	libs.Extended = true
	libs.InlineRequires = true
	libs.Factories = factories
	is["goja-libs"] = libs

	is["noop"] = noop.NewInterpreter()

	return is
}
