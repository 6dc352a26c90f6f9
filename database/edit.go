package database

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xmit-co/passnote/protocol"
)

var (
	ErrNotFound = errors.New("not found")
	ErrExists   = errors.New("name already in use")
	ErrRoot     = errors.New("the root cannot be deleted")
	ErrNotLeaf  = errors.New("not a leaf")
)

// Rename returns a copy of root with the node at path renamed. It fails
// with ErrExists if a sibling already has the name, ignoring case. A
// node may change the case of its own name.
func Rename(root *protocol.Node, path []int, name string) (*protocol.Node, error) {
	out := root.Clone()
	n, ok := Resolve(out, path)
	if !ok {
		return nil, ErrNotFound
	}
	if len(path) > 0 {
		parent, _ := Resolve(out, path[:len(path)-1])
		if i := childIndex(parent, name); i >= 0 && i != path[len(path)-1] {
			return nil, fmt.Errorf("%q: %w", name, ErrExists)
		}
	}
	n.Name = name
	return out, nil
}

// Delete returns a copy of root without the node at path.
func Delete(root *protocol.Node, path []int) (*protocol.Node, error) {
	if len(path) == 0 {
		return nil, ErrRoot
	}
	out := root.Clone()
	parent, ok := Resolve(out, path[:len(path)-1])
	i := path[len(path)-1]
	if !ok || parent.Leaf || i < 0 || i >= len(parent.Children) {
		return nil, ErrNotFound
	}
	parent.Children = append(parent.Children[:i], parent.Children[i+1:]...)
	return out, nil
}

// RenameField renames a field of the leaf at path. Field names are
// trimmed, and one already used on the leaf is refused.
func RenameField(root *protocol.Node, path []int, from, to string) (*protocol.Node, error) {
	out := root.Clone()
	leaf, err := leafAt(out, path)
	if err != nil {
		return nil, err
	}
	i := findField(leaf, from)
	if i < 0 {
		return nil, fmt.Errorf("field %q: %w", from, ErrNotFound)
	}
	to = strings.TrimSpace(to)
	if j := findField(leaf, to); j >= 0 && j != i {
		return nil, fmt.Errorf("field %q: %w", to, ErrExists)
	}
	leaf.Fields[i].Name = to
	return out, nil
}

// DeleteField removes a field from the leaf at path.
func DeleteField(root *protocol.Node, path []int, name string) (*protocol.Node, error) {
	out := root.Clone()
	leaf, err := leafAt(out, path)
	if err != nil {
		return nil, err
	}
	i := findField(leaf, name)
	if i < 0 {
		return nil, fmt.Errorf("field %q: %w", name, ErrNotFound)
	}
	leaf.Fields = append(leaf.Fields[:i], leaf.Fields[i+1:]...)
	return out, nil
}

// SetField returns a copy of leaf with the named field set to value and
// stamped with now, appending the field if the leaf lacks it.
func SetField(leaf *protocol.Node, name, value string, now int64) (*protocol.Node, Stats) {
	var stats Stats
	out := leaf.Clone()
	if out.Leaf {
		setField(out, strings.TrimSpace(name), strings.TrimSpace(value), now, &stats)
	}
	return out, stats
}

func setField(leaf *protocol.Node, name, value string, now int64, stats *Stats) {
	if i := findField(leaf, name); i >= 0 {
		if !strings.EqualFold(leaf.Fields[i].Value, value) {
			stats.FieldsUpdated++
		}
		leaf.Fields[i].Value = value
		leaf.Fields[i].Modified = now
		return
	}
	leaf.Fields = append(leaf.Fields, protocol.Field{Name: name, Value: value, Modified: now})
	stats.FieldsAdded++
}

func leafAt(root *protocol.Node, path []int) (*protocol.Node, error) {
	n, ok := Resolve(root, path)
	if !ok {
		return nil, ErrNotFound
	}
	if !n.Leaf {
		return nil, fmt.Errorf("%q: %w", n.Name, ErrNotLeaf)
	}
	return n, nil
}
