package database

import (
	"slices"
	"strings"

	"github.com/xmit-co/passnote/protocol"
)

// Sort returns a copy of the tree with children and fields ordered
// case-insensitively by name at every level. Equal names keep their
// relative order.
func Sort(n *protocol.Node) *protocol.Node {
	c := n.Clone()
	sortNode(c)
	return c
}

func sortNode(n *protocol.Node) {
	if n.Leaf {
		slices.SortStableFunc(n.Fields, func(a, b protocol.Field) int {
			return compareFold(a.Name, b.Name)
		})
		return
	}
	slices.SortStableFunc(n.Children, func(a, b *protocol.Node) int {
		return compareFold(a.Name, b.Name)
	})
	for _, c := range n.Children {
		sortNode(c)
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
