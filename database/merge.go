// Package database holds the editing operations a PassNote database
// supports on top of the codec: merging, sorting, searching and TSV
// exchange. Every operation returns a new tree; inputs are left as is.
package database

import (
	"strings"

	"github.com/xmit-co/passnote/protocol"
)

type Stats struct {
	HoldersAdded  int
	LeavesAdded   int
	FieldsAdded   int
	FieldsUpdated int
}

func (s Stats) Changed() bool {
	return s != Stats{}
}

// Merge folds src into a copy of dst. Children and fields are matched by
// case-insensitive name. A field from src wins only if it is strictly
// newer. Unmatched nodes and fields are appended in src order.
func Merge(dst, src *protocol.Node) (*protocol.Node, Stats) {
	var stats Stats
	a := dst.Clone()
	mergeNode(a, src.Clone(), &stats)
	return a, stats
}

func mergeNode(a, b *protocol.Node, stats *Stats) {
	if a.Leaf && !b.Leaf {
		// The holder takes the leaf's place and the leaf moves inside it.
		*a, *b = *b, *a
	}
	if !a.Leaf && b.Leaf {
		found := findChild(a, b.Name)
		if found == nil {
			found = protocol.NewLeaf(b.Name)
			a.Children = append(a.Children, found)
		}
		mergeNode(found, b, stats)
		return
	}
	if a.Leaf {
		mergeFields(a, b, stats)
		return
	}
	for _, child := range b.Children {
		if found := findChild(a, child.Name); found != nil {
			mergeNode(found, child, stats)
			continue
		}
		a.Children = append(a.Children, child)
		if child.Leaf {
			stats.LeavesAdded++
		} else {
			stats.HoldersAdded++
		}
	}
}

func mergeFields(a, b *protocol.Node, stats *Stats) {
	for _, f := range b.Fields {
		i := findField(a, f.Name)
		if i < 0 {
			a.Fields = append(a.Fields, f)
			stats.FieldsAdded++
			continue
		}
		if f.Modified > a.Fields[i].Modified {
			a.Fields[i].Value = f.Value
			a.Fields[i].Modified = f.Modified
			stats.FieldsUpdated++
		}
	}
}

func findChild(n *protocol.Node, name string) *protocol.Node {
	if i := childIndex(n, name); i >= 0 {
		return n.Children[i]
	}
	return nil
}

func childIndex(n *protocol.Node, name string) int {
	name = strings.TrimSpace(name)
	for i, c := range n.Children {
		if strings.EqualFold(c.Name, name) {
			return i
		}
	}
	return -1
}

func findField(n *protocol.Node, name string) int {
	name = strings.TrimSpace(name)
	for i, f := range n.Fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}

type Totals struct {
	Holders int
	Leaves  int
	Fields  int
}

// Count totals the holders, leaves and fields of a tree, the root
// included.
func Count(n *protocol.Node) Totals {
	var t Totals
	if n == nil {
		return t
	}
	if n.Leaf {
		return Totals{Leaves: 1, Fields: len(n.Fields)}
	}
	t.Holders = 1
	for _, c := range n.Children {
		ct := Count(c)
		t.Holders += ct.Holders
		t.Leaves += ct.Leaves
		t.Fields += ct.Fields
	}
	return t
}
