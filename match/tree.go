package match

import (
	"github.com/xlab/treeprint"
)

// Tree renders a pattern as an indented tree.
//
// Each line names the kind of Node.  Leaves show their values.
func Tree(n Node) string {
	t := treeprint.New()
	addTree(t, n)
	return t.String()
}

func addTree(t treeprint.Tree, n Node) {
	switch vv := n.(type) {
	case *Wildcard:
		t.AddMetaNode("any", "_")
	case *Constant:
		t.AddMetaNode("const", vv.String())
	case *Variable:
		t.AddMetaNode("var", vv.Var.Name)
	case *Pin:
		t.AddMetaNode("pin", vv.Var.Name)
	case *Sequence:
		addChildren(t.AddMetaBranch("seq", len(vv.Elems)), vv.Elems)
	case *Set:
		addChildren(t.AddMetaBranch("set", len(vv.Elems)), vv.Elems)
	case *Mapping:
		addPairs(t.AddMetaBranch("map", len(vv.Pairs)), vv.Pairs)
	case *SequenceWithRest:
		b := t.AddMetaBranch("seq", "rest")
		addChildren(b, vv.Head)
		addRest(b, vv.Rest)
		addChildren(b, vv.Tail)
	case *SetWithRest:
		b := t.AddMetaBranch("set", "rest")
		addChildren(b, vv.Required)
		addRest(b, vv.Rest)
	case *MappingWithRest:
		b := t.AddMetaBranch("map", "rest")
		addChildren(b, vv.Parts)
		addRest(b, vv.Rest)
	case *Constructor:
		b := t.AddMetaBranch("call", vv.Name)
		addChildren(b, vv.Args)
		addPairs(b, vv.Kwargs)
	default:
		t.AddMetaNode("node", n.String())
	}
}

func addChildren(t treeprint.Tree, ns []Node) {
	for _, n := range ns {
		addTree(t, n)
	}
}

func addPairs(t treeprint.Tree, ps []Pair) {
	for _, p := range ps {
		addTree(t.AddMetaBranch("key", render(p.Key)), p.Value)
	}
}

func addRest(t treeprint.Tree, rest *Variable) {
	if rest != nil {
		t.AddMetaNode("rest", rest.Var.Name)
	}
}
