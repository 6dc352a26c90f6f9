// Package protocol implements the PassNote binary format: a
// self-delimiting, NUL-terminated encoding of a holder/leaf tree.
//
//	"PASSNOTE" <root node> 8×0x00
//	node:  <tag:h|e|l> <cont:+|-> name 0x00 [children | fields]
//	field: 'f' <cont:+|-> hex(seconds) 0x00 name 0x00 value 0x00
package protocol

import "bytes"

const (
	Magic = "PASSNOTE"

	tagHolder = 'h'
	tagEmpty  = 'e'
	tagLeaf   = 'l'
	tagField  = 'f'

	more = '+'
	last = '-'

	DefaultMaxDepth = 1024
)

var terminator = [len(Magic)]byte{}

// Encoder writes trees in PassNote format. The zero value is usable.
type Encoder struct {
	// MaxDepth bounds holder nesting; 0 means DefaultMaxDepth.
	MaxDepth int
}

// Decoder reads PassNote buffers. The zero value is usable.
type Decoder struct {
	// MaxDepth bounds holder nesting; 0 means DefaultMaxDepth.
	MaxDepth int
}

func Encode(root *Node) ([]byte, error) {
	return Encoder{}.Encode(root)
}

func Decode(data []byte) (*Node, error) {
	return Decoder{}.Decode(data)
}

func maxDepth(d int) int {
	if d <= 0 {
		return DefaultMaxDepth
	}
	return d
}

// Encode validates the whole tree first, so a failing call never
// returns a partial stream.
func (e Encoder) Encode(root *Node) ([]byte, error) {
	if err := root.Validate(); err != nil {
		return nil, err
	}
	if d := root.depth(); d > maxDepth(e.MaxDepth) {
		return nil, newError(TooDeep, -1, "tree is %d levels deep, limit is %d", d, maxDepth(e.MaxDepth))
	}
	b := make([]byte, 0, 64)
	b = append(b, Magic...)
	b = appendNode(b, root, false)
	b = append(b, terminator[:]...)
	return b, nil
}

// depth counts holder nesting; leaves add nothing.
func (n *Node) depth() int {
	if n.Leaf {
		return 0
	}
	d := 0
	for _, c := range n.Children {
		d = max(d, c.depth())
	}
	return d + 1
}

func appendNode(b []byte, n *Node, hasNext bool) []byte {
	var tag byte
	switch {
	case n.Leaf:
		tag = tagLeaf
	case len(n.Children) == 0:
		tag = tagEmpty
	default:
		tag = tagHolder
	}
	b = append(b, tag, flag(hasNext))
	b = appendTerminated(b, n.Name)
	if n.Leaf {
		for i, f := range n.Fields {
			b = append(b, tagField, flag(i+1 < len(n.Fields)))
			b = appendSeconds(b, f.Modified)
			b = appendTerminated(b, f.Name)
			b = appendTerminated(b, f.Value)
		}
		return b
	}
	for i, c := range n.Children {
		b = appendNode(b, c, i+1 < len(n.Children))
	}
	return b
}

func flag(hasNext bool) byte {
	if hasNext {
		return more
	}
	return last
}

// Decode parses a complete PassNote buffer. Any structural violation
// aborts the whole call; no partial tree is returned.
func (d Decoder) Decode(data []byte) (*Node, error) {
	c := &cursor{buf: data}
	magic, err := c.readFixed(len(Magic))
	if err != nil {
		return nil, newError(BadMagic, 0, "input shorter than magic (%d bytes)", len(data))
	}
	if string(magic) != Magic {
		return nil, newError(BadMagic, 0, "got %q", magic)
	}
	p := parser{cursor: c, maxDepth: maxDepth(d.MaxDepth)}
	root, hasNext, err := p.node(1)
	if err != nil {
		return nil, err
	}
	if hasNext {
		return nil, newError(UnknownTag, len(Magic)+1, "root continuation flag is %q", more)
	}
	end := c.pos
	term, err := c.readFixed(len(terminator))
	if err != nil {
		return nil, newError(BadTerminator, end, "only %d bytes after root node", len(data)-end)
	}
	if !bytes.Equal(term, terminator[:]) {
		return nil, newError(BadTerminator, end, "terminator is %q", term)
	}
	if c.remaining() > 0 {
		return nil, newError(BadTerminator, c.pos, "%d trailing bytes after terminator", c.remaining())
	}
	return root, nil
}

type parser struct {
	*cursor
	maxDepth int
}

func (p *parser) header() (tag byte, hasNext bool, err error) {
	start := p.pos
	h, err := p.readFixed(2)
	if err != nil {
		return 0, false, err
	}
	switch h[1] {
	case more:
		hasNext = true
	case last:
	default:
		return 0, false, newError(UnknownTag, start+1, "continuation flag %q", h[1])
	}
	return h[0], hasNext, nil
}

func (p *parser) node(depth int) (*Node, bool, error) {
	start := p.pos
	tag, hasNext, err := p.header()
	if err != nil {
		return nil, false, err
	}
	switch tag {
	case tagHolder, tagEmpty:
		if depth > p.maxDepth {
			return nil, false, newError(TooDeep, start, "holder nesting exceeds %d", p.maxDepth)
		}
		n, err := p.holder(tag == tagEmpty, depth)
		return n, hasNext, err
	case tagLeaf:
		n, err := p.leaf()
		return n, hasNext, err
	default:
		return nil, false, newError(UnknownTag, start, "node tag %q", tag)
	}
}

func (p *parser) holder(empty bool, depth int) (*Node, error) {
	name, err := p.readTerminated()
	if err != nil {
		return nil, err
	}
	n := NewHolder(name)
	for sibling := !empty; sibling; {
		var child *Node
		child, sibling, err = p.node(depth + 1)
		if err != nil {
			return nil, err
		}
		n.Children = append(n.Children, child)
	}
	return n, nil
}

func (p *parser) leaf() (*Node, error) {
	name, err := p.readTerminated()
	if err != nil {
		return nil, err
	}
	n := NewLeaf(name)
	b, err := p.peek()
	if err != nil {
		return nil, err
	}
	// Anything but a field tag starts the next sibling or the
	// terminator: the leaf has no fields.
	for sibling := b == tagField; sibling; {
		var f Field
		f, sibling, err = p.field()
		if err != nil {
			return nil, err
		}
		n.Fields = append(n.Fields, f)
	}
	return n, nil
}

func (p *parser) field() (Field, bool, error) {
	start := p.pos
	tag, hasNext, err := p.header()
	if err != nil {
		return Field{}, false, err
	}
	if tag != tagField {
		return Field{}, false, newError(UnknownTag, start, "field tag %q", tag)
	}
	modified, err := p.readSeconds()
	if err != nil {
		return Field{}, false, err
	}
	name, err := p.readTerminated()
	if err != nil {
		return Field{}, false, err
	}
	value, err := p.readTerminated()
	if err != nil {
		return Field{}, false, err
	}
	return Field{Name: name, Value: value, Modified: modified}, hasNext, nil
}
