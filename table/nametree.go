package table

import (
	"github.com/cespare/xxhash/v2"
	"github.com/nfd-probe/fw/defn"
)

// NameTree is the arena-indexed prefix trie shared by the PIT, FIB and CS.
// Each table keeps its own entries in a map keyed by the Node id returned
// here, rather than holding a pointer into the trie directly.
type NameTree struct {
	nodes []*treeNode
	root  *treeNode
}

// NodeID is a stable arena index into the NameTree.
type NodeID int

const invalidNodeID NodeID = -1

type treeNode struct {
	id       NodeID
	name     defn.Name
	parent   *treeNode
	children map[uint64]*treeNode
}

// NewNameTree constructs an empty tree with a root standing for Name{}.
func NewNameTree() *NameTree {
	t := &NameTree{}
	t.root = t.newNode(defn.Name{}, nil)
	return t
}

func (t *NameTree) newNode(name defn.Name, parent *treeNode) *treeNode {
	n := &treeNode{
		id:       NodeID(len(t.nodes)),
		name:     name.Clone(),
		parent:   parent,
		children: make(map[uint64]*treeNode),
	}
	t.nodes = append(t.nodes, n)
	return n
}

func componentHash(comp string) uint64 {
	return xxhash.Sum64String(comp)
}

// FindOrInsert walks (creating as needed) the trie down to name, returning
// its node id.
func (t *NameTree) FindOrInsert(name defn.Name) NodeID {
	cur := t.root
	for i, comp := range name {
		h := componentHash(comp)
		child, ok := cur.children[h]
		if !ok {
			child = t.newNode(name[:i+1], cur)
			cur.children[h] = child
		}
		cur = child
	}
	return cur.id
}

// Find walks the trie down to name without creating nodes, reporting whether
// it exists.
func (t *NameTree) Find(name defn.Name) (NodeID, bool) {
	cur := t.root
	for _, comp := range name {
		h := componentHash(comp)
		child, ok := cur.children[h]
		if !ok {
			return invalidNodeID, false
		}
		cur = child
	}
	return cur.id, true
}

// Name returns the name a node id was created for.
func (t *NameTree) Name(id NodeID) defn.Name {
	return t.nodes[id].name
}

// LongestPrefixMatch walks name component by component, returning the id of
// the deepest existing node that is a prefix of name; this is the root when
// no component matches. Callers tell "found the root" from "found nothing"
// by looking the returned node up in whatever table they consult.
func (t *NameTree) LongestPrefixMatch(name defn.Name) NodeID {
	cur := t.root
	for _, comp := range name {
		h := componentHash(comp)
		child, ok := cur.children[h]
		if !ok {
			break
		}
		cur = child
	}
	return cur.id
}

// Ancestors returns the chain of node ids from name's node (if present) up to
// the root, nearest first. Used by FIB longest-prefix-match to walk upward
// from a node that exists only because PIT/CS registered it there.
func (t *NameTree) Ancestors(id NodeID) []NodeID {
	var out []NodeID
	n := t.nodes[id]
	for n != nil {
		out = append(out, n.id)
		n = n.parent
	}
	return out
}
