package tools

import (
	"github.com/Comcast/casematch/match"
)

// Shape describes a pattern tree with plain maps, slices, and
// strings, so that the tree can be written as YAML or JSON.
//
// Leaves are rendered in the pattern syntax.  Containers become
// single-key maps ("seq", "set", "map", or the constructor name).
func Shape(n match.Node) interface{} {
	switch vv := n.(type) {
	case nil:
		return nil
	case *match.Wildcard, *match.Constant, *match.Variable, *match.Pin:
		return n.String()
	case *match.Sequence:
		return map[string]interface{}{"seq": shapes(vv.Elems)}
	case *match.Set:
		return map[string]interface{}{"set": shapes(vv.Elems)}
	case *match.Mapping:
		return map[string]interface{}{"map": pairShapes(vv.Pairs)}
	case *match.SequenceWithRest:
		acc := shapes(vv.Head)
		if vv.Rest != nil {
			acc = append(acc, "*"+vv.Rest.String())
		}
		acc = append(acc, shapes(vv.Tail)...)
		return map[string]interface{}{"seq": acc}
	case *match.SetWithRest:
		acc := shapes(vv.Required)
		if vv.Rest != nil {
			acc = append(acc, "*"+vv.Rest.String())
		}
		return map[string]interface{}{"set": acc}
	case *match.MappingWithRest:
		acc := shapes(vv.Parts)
		if vv.Rest != nil {
			acc = append(acc, "**"+vv.Rest.String())
		}
		return map[string]interface{}{"map": acc}
	case *match.Constructor:
		call := map[string]interface{}{}
		if 0 < len(vv.Args) {
			call["args"] = shapes(vv.Args)
		}
		if 0 < len(vv.Kwargs) {
			call["kwargs"] = pairShapes(vv.Kwargs)
		}
		return map[string]interface{}{vv.Name: call}
	default:
		return n.String()
	}
}

func shapes(ns []match.Node) []interface{} {
	acc := make([]interface{}, len(ns))
	for i, n := range ns {
		acc[i] = Shape(n)
	}
	return acc
}

func pairShapes(ps []match.Pair) map[string]interface{} {
	acc := make(map[string]interface{}, len(ps))
	for _, p := range ps {
		k, is := p.Key.(string)
		if !is {
			k = match.NewConstant(p.Key).String()
		}
		acc[k] = Shape(p.Value)
	}
	return acc
}
