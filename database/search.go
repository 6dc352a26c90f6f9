package database

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/xmit-co/passnote/protocol"
)

type Options int

const (
	HolderName Options = 1 << iota
	LeafName
	FieldName
	FieldValue
	IgnoreWhitespace

	AllNames = HolderName | LeafName | FieldName
	All      = AllNames | FieldValue
)

var scopes = map[string]Options{
	"all":     All,
	"names":   AllNames,
	"holders": HolderName,
	"leaves":  LeafName,
	"fields":  FieldName,
	"values":  FieldValue,
}

// ParseOptions reads a comma-separated list of scopes such as
// "leaves,values". An empty list means All.
func ParseOptions(scope string) (Options, error) {
	if strings.TrimSpace(scope) == "" {
		return All, nil
	}
	var opts Options
	for _, part := range strings.Split(scope, ",") {
		o, ok := scopes[strings.TrimSpace(part)]
		if !ok {
			return 0, fmt.Errorf("unknown search scope %q", part)
		}
		opts |= o
	}
	return opts, nil
}

// Result is one search hit. Path holds child indices from the root to
// the matching node (or to the leaf owning the matching field). Name is
// the display path, "root > holder > leaf [> field]".
type Result struct {
	Path    []int
	Name    string
	Value   string
	IsField bool
}

// Search walks the tree depth-first and reports nodes and fields whose
// name or value contains phrase, ignoring case. The root itself never
// matches by name.
func Search(root *protocol.Node, opts Options, phrase string) []Result {
	if opts&All == 0 || root == nil {
		return nil
	}
	s := searcher{opts: opts, phrase: normalize(phrase, opts)}
	s.walk(root, nil, root.Name, true)
	return s.results
}

type searcher struct {
	opts    Options
	phrase  string
	results []Result
}

func (s *searcher) walk(n *protocol.Node, path []int, name string, root bool) {
	if !root && s.nameHit(n) {
		s.results = append(s.results, Result{Path: clonePath(path), Name: name})
	}
	if n.Leaf {
		for _, f := range n.Fields {
			if (s.opts&FieldName != 0 && s.contains(f.Name)) || (s.opts&FieldValue != 0 && s.contains(f.Value)) {
				s.results = append(s.results, Result{
					Path:    clonePath(path),
					Name:    name + " > " + f.Name,
					Value:   f.Value,
					IsField: true,
				})
			}
		}
		return
	}
	for i, c := range n.Children {
		s.walk(c, append(path, i), name+" > "+c.Name, false)
	}
}

func (s *searcher) nameHit(n *protocol.Node) bool {
	if n.Leaf && s.opts&LeafName == 0 {
		return false
	}
	if !n.Leaf && s.opts&HolderName == 0 {
		return false
	}
	return s.contains(n.Name)
}

func (s *searcher) contains(haystack string) bool {
	return strings.Contains(normalize(haystack, s.opts), s.phrase)
}

func normalize(text string, opts Options) string {
	text = strings.ToLower(text)
	if opts&IgnoreWhitespace == 0 {
		return text
	}
	return strings.Map(func(r rune) rune {
		if r == ' ' || r == '\t' || unicode.Is(unicode.Zs, r) {
			return -1
		}
		return r
	}, text)
}

func clonePath(p []int) []int {
	return append(make([]int, 0, len(p)), p...)
}

// Resolve follows a Path from root and returns the node it names.
func Resolve(root *protocol.Node, path []int) (*protocol.Node, bool) {
	n := root
	for _, i := range path {
		if n == nil || n.Leaf || i < 0 || i >= len(n.Children) {
			return nil, false
		}
		n = n.Children[i]
	}
	return n, n != nil
}

// Find resolves a " > "-separated or "/"-separated name path from the
// root, matching each segment case-insensitively. The root's own name
// may be given as the first segment or omitted.
func Find(root *protocol.Node, namePath string) (*protocol.Node, bool) {
	path, ok := Locate(root, namePath)
	if !ok {
		return nil, false
	}
	return Resolve(root, path)
}

// Locate is Find returning child indices instead of the node.
func Locate(root *protocol.Node, namePath string) ([]int, bool) {
	sep := "/"
	if strings.Contains(namePath, ">") {
		sep = ">"
	}
	var segments []string
	for _, s := range strings.Split(namePath, sep) {
		if s = strings.TrimSpace(s); s != "" {
			segments = append(segments, s)
		}
	}
	if len(segments) > 0 && strings.EqualFold(segments[0], root.Name) && findChild(root, segments[0]) == nil {
		segments = segments[1:]
	}
	path := []int{}
	n := root
	for _, s := range segments {
		if n.Leaf {
			return nil, false
		}
		i := childIndex(n, s)
		if i < 0 {
			return nil, false
		}
		path = append(path, i)
		n = n.Children[i]
	}
	return path, true
}

// Replace returns a copy of root with the node at path swapped for n.
func Replace(root *protocol.Node, path []int, n *protocol.Node) (*protocol.Node, bool) {
	if len(path) == 0 {
		return n.Clone(), true
	}
	out := root.Clone()
	parent, ok := Resolve(out, path[:len(path)-1])
	if !ok || parent.Leaf {
		return nil, false
	}
	i := path[len(path)-1]
	if i < 0 || i >= len(parent.Children) {
		return nil, false
	}
	parent.Children[i] = n.Clone()
	return out, true
}
