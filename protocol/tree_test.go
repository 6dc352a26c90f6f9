package protocol

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestJSON_Shape(t *testing.T) {
	tree := NewHolder("root",
		NewLeaf("site", Field{Name: "user", Value: "bob", Modified: 1000}),
		NewHolder("empty"),
		NewLeaf("bare"),
	)
	b, err := json.Marshal(tree)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"name":"root","leaf":false,"children":[` +
		`{"name":"site","leaf":true,"fields":[{"name":"user","value":"bob","modified":1000}]},` +
		`{"name":"empty","leaf":false,"children":[]},` +
		`{"name":"bare","leaf":true,"fields":[]}]}`
	if string(b) != want {
		t.Fatalf("got  %s\nwant %s", b, want)
	}

	var back Node
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if !reflect.DeepEqual(&back, tree) {
		t.Fatalf("json round trip mismatch: %+v", back)
	}
}

func TestJSON_LenientInput(t *testing.T) {
	input := `{"name":"root","children":[
		{"name":"h"},
		{"name":"l","leaf":true},
		{"name":"notleaf","leaf":"yes","children":[]},
		{"name":"s","leaf":true,"fields":[
			{"name":"a","value":"1","modified":"2500"},
			{"name":"b","value":"2","modified":1500.6},
			{"name":"c","value":"3"}
		]}
	]}`
	var n Node
	if err := json.Unmarshal([]byte(input), &n); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if n.Leaf || len(n.Children) != 4 {
		t.Fatalf("root = %+v", n)
	}
	if h := n.Children[0]; h.Leaf || h.Children == nil || len(h.Children) != 0 {
		t.Fatalf("holder without children = %+v", h)
	}
	if l := n.Children[1]; !l.Leaf || l.Fields == nil || len(l.Fields) != 0 {
		t.Fatalf("leaf without fields = %+v", l)
	}
	if n.Children[2].Leaf {
		t.Fatalf("only a literal true marks a leaf")
	}
	fields := n.Children[3].Fields
	want := []int64{2500, 1501, 0}
	for i, f := range fields {
		if f.Modified != want[i] {
			t.Fatalf("field %s modified = %d, want %d", f.Name, f.Modified, want[i])
		}
	}
}

func TestJSON_RejectsBadModified(t *testing.T) {
	for _, in := range []string{
		`{"name":"a","value":"b","modified":-5}`,
		`{"name":"a","value":"b","modified":"soon"}`,
		`{"name":"a","value":"b","modified":true}`,
	} {
		var f Field
		if err := json.Unmarshal([]byte(in), &f); err == nil {
			t.Fatalf("expected error for %s", in)
		}
	}
}

func TestJSON_RejectsNullChild(t *testing.T) {
	var n Node
	if err := json.Unmarshal([]byte(`{"name":"r","children":[null]}`), &n); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_NilChild(t *testing.T) {
	err := NewHolder("r", nil).Validate()
	if KindOf(err) != UnknownTag {
		t.Fatalf("expected UnknownTag, got %v", err)
	}
}

func TestTruncate_DoesNotMutate(t *testing.T) {
	tree := NewLeaf("l", Field{Name: "n", Value: "v", Modified: 1999})
	got := Truncate(tree)
	if tree.Fields[0].Modified != 1999 {
		t.Fatalf("input mutated")
	}
	if got.Fields[0].Modified != 2000 {
		t.Fatalf("truncated = %d", got.Fields[0].Modified)
	}
}

func TestDigest(t *testing.T) {
	a := sample()
	b := sample()
	if !Equal(a, b) {
		t.Fatalf("equal trees hash differently")
	}
	b.Children[0].Children[0].Fields[1].Value = "hunter3"
	if Equal(a, b) {
		t.Fatalf("different trees hash equal")
	}

	// Reordering siblings is a different tree.
	c := sample()
	c.Children[1], c.Children[2] = c.Children[2], c.Children[1]
	if Equal(a, c) {
		t.Fatalf("sibling order ignored by digest")
	}

	h, err := Digest(a)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if len(h.String()) != 64 {
		t.Fatalf("hex digest %q", h.String())
	}
}

func TestKindOf(t *testing.T) {
	if KindOf(errors.New("plain")) != "" {
		t.Fatalf("plain error has a kind")
	}
	if KindOf(nil) != "" {
		t.Fatalf("nil has a kind")
	}
	var e *Error
	if e.Error() != "<nil>" || e.Unwrap() != nil {
		t.Fatalf("nil *Error misbehaves")
	}
}
