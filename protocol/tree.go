package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Node is either a holder (Leaf == false) with ordered Children, or a
// leaf with ordered Fields.
type Node struct {
	Name     string  `cbor:"1,keyasint"`
	Leaf     bool    `cbor:"2,keyasint,omitempty"`
	Children []*Node `cbor:"3,keyasint,omitempty"`
	Fields   []Field `cbor:"4,keyasint,omitempty"`
}

// Field is a named value on a leaf. Modified is in milliseconds since
// the epoch; the wire keeps whole seconds only.
type Field struct {
	Name     string `cbor:"1,keyasint"`
	Value    string `cbor:"2,keyasint"`
	Modified int64  `cbor:"3,keyasint"`
}

func NewHolder(name string, children ...*Node) *Node {
	if children == nil {
		children = []*Node{}
	}
	return &Node{Name: name, Children: children}
}

func NewLeaf(name string, fields ...Field) *Node {
	if fields == nil {
		fields = []Field{}
	}
	return &Node{Name: name, Leaf: true, Fields: fields}
}

// Validate reports the first node or field that cannot be written to
// the wire: strings containing NUL, negative timestamps, nil children.
func (n *Node) Validate() error {
	return n.validate(nil)
}

func (n *Node) validate(path []string) error {
	if n == nil {
		return &Error{Kind: UnknownTag, Offset: -1, Message: fmt.Sprintf("nil node under %q", strings.Join(path, " > "))}
	}
	path = append(path, n.Name)
	if strings.IndexByte(n.Name, 0) >= 0 {
		return &Error{Kind: InvalidCharacter, Offset: -1, Message: fmt.Sprintf("NUL in node name %q", strings.Join(path, " > "))}
	}
	if n.Leaf {
		for _, f := range n.Fields {
			if err := f.validate(path); err != nil {
				return err
			}
		}
		return nil
	}
	for _, c := range n.Children {
		if err := c.validate(path); err != nil {
			return err
		}
	}
	return nil
}

func (f Field) validate(path []string) error {
	where := strings.Join(append(path, f.Name), " > ")
	if strings.IndexByte(f.Name, 0) >= 0 {
		return &Error{Kind: InvalidCharacter, Offset: -1, Message: fmt.Sprintf("NUL in field name %q", where)}
	}
	if strings.IndexByte(f.Value, 0) >= 0 {
		return &Error{Kind: InvalidCharacter, Offset: -1, Message: fmt.Sprintf("NUL in value of field %q", where)}
	}
	if f.Modified < 0 {
		return &Error{Kind: MalformedNumber, Offset: -1, Message: fmt.Sprintf("negative modified time %d on field %q", f.Modified, where)}
	}
	return nil
}

// Clone returns a deep copy of the tree.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{Name: n.Name, Leaf: n.Leaf}
	if n.Leaf {
		c.Fields = append(make([]Field, 0, len(n.Fields)), n.Fields...)
		return c
	}
	c.Children = make([]*Node, 0, len(n.Children))
	for _, child := range n.Children {
		c.Children = append(c.Children, child.Clone())
	}
	return c
}

// Truncate returns a copy of the tree with every Modified reduced to
// whole seconds, which is what a decode of its encoding yields.
func Truncate(n *Node) *Node {
	c := n.Clone()
	c.walkFields(func(f *Field) {
		f.Modified = roundSeconds(f.Modified) * 1000
	})
	return c
}

func (n *Node) walkFields(fn func(*Field)) {
	if n == nil {
		return
	}
	if n.Leaf {
		for i := range n.Fields {
			fn(&n.Fields[i])
		}
		return
	}
	for _, c := range n.Children {
		c.walkFields(fn)
	}
}

type jsonHolder struct {
	Name     string  `json:"name"`
	Leaf     bool    `json:"leaf"`
	Children []*Node `json:"children"`
}

type jsonLeaf struct {
	Name   string  `json:"name"`
	Leaf   bool    `json:"leaf"`
	Fields []Field `json:"fields"`
}

func (n *Node) MarshalJSON() ([]byte, error) {
	if n.Leaf {
		fields := n.Fields
		if fields == nil {
			fields = []Field{}
		}
		return json.Marshal(jsonLeaf{Name: n.Name, Leaf: true, Fields: fields})
	}
	children := n.Children
	if children == nil {
		children = []*Node{}
	}
	return json.Marshal(jsonHolder{Name: n.Name, Children: children})
}

func (n *Node) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Leaf     json.RawMessage `json:"leaf"`
		Children []*Node         `json:"children"`
		Fields   []Field         `json:"fields"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	// Only a literal true makes a leaf; "true" or 1 is a holder.
	leaf := bytes.Equal(bytes.TrimSpace(raw.Leaf), []byte("true"))
	*n = Node{Name: raw.Name, Leaf: leaf}
	if leaf {
		n.Fields = raw.Fields
		if n.Fields == nil {
			n.Fields = []Field{}
		}
		return nil
	}
	n.Children = raw.Children
	if n.Children == nil {
		n.Children = []*Node{}
	}
	for i, c := range n.Children {
		if c == nil {
			return fmt.Errorf("holder %q: child %d is null", n.Name, i)
		}
	}
	return nil
}

type jsonField struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Modified int64  `json:"modified"`
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonField(f))
}

func (f *Field) UnmarshalJSON(b []byte) error {
	var raw struct {
		Name     string          `json:"name"`
		Value    string          `json:"value"`
		Modified json.RawMessage `json:"modified"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	modified, err := parseMillis(raw.Modified)
	if err != nil {
		return fmt.Errorf("field %q: %w", raw.Name, err)
	}
	*f = Field{Name: raw.Name, Value: raw.Value, Modified: modified}
	return nil
}

// parseMillis accepts a JSON number or a numeric string.
func parseMillis(raw json.RawMessage) (int64, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return 0, nil
		}
	}
	if v, err := strconv.ParseInt(text, 10, 64); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("negative modified time %d", v)
		}
		return v, nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("modified time %s is not a number", text)
	}
	if v < 0 || v >= math.MaxInt64 {
		return 0, fmt.Errorf("modified time %s out of range", text)
	}
	return int64(math.Round(v)), nil
}
