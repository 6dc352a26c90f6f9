package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func sample() *Node {
	return NewHolder("root",
		NewHolder("mail",
			NewLeaf("personal",
				Field{Name: "login", Value: "alice", Modified: 1700000000000},
				Field{Name: "password", Value: "hunter2", Modified: 1700000000499},
			),
			NewLeaf("work",
				Field{Name: "login", Value: "a.smith", Modified: 1600000000500},
			),
		),
		NewHolder("empty"),
		NewLeaf("bare"),
		NewLeaf("last", Field{Name: "note", Value: "multi\nline\tvalue", Modified: 0}),
	)
}

func TestEncode_ConcreteScenario(t *testing.T) {
	tree := NewHolder("root", NewLeaf("leaf1", Field{Name: "k", Value: "v", Modified: 1000}))
	got, err := Encode(tree)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	want := []byte("PASSNOTE" + "h-" + "root\x00" + "l-" + "leaf1\x00" + "f-" + "1\x00" + "k\x00" + "v\x00" + "\x00\x00\x00\x00\x00\x00\x00\x00")
	if !bytes.Equal(got, want) {
		t.Fatalf("Encode mismatch\n got %q\nwant %q", got, want)
	}

	back, err := Decode(want)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !reflect.DeepEqual(back, tree) {
		t.Fatalf("Decode mismatch: %+v", back)
	}
	if back.Children[0].Fields[0].Modified != 1000 {
		t.Fatalf("modified = %d, want 1000", back.Children[0].Fields[0].Modified)
	}
}

func TestRoundTrip(t *testing.T) {
	tree := sample()
	b, err := Encode(tree)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := Truncate(tree)
	if !Equal(back, want) {
		t.Fatalf("round trip mismatch\n got %+v\nwant %+v", back, want)
	}
	if !reflect.DeepEqual(back, want) {
		t.Fatalf("round trip not deeply equal\n got %+v\nwant %+v", back, want)
	}

	// Encoding the decoded tree is byte-identical.
	again, err := Encode(back)
	if err != nil {
		t.Fatalf("Encode(back): %v", err)
	}
	if !bytes.Equal(again, b) {
		t.Fatalf("re-encode differs\n got %q\nwant %q", again, b)
	}
}

func TestRoundTrip_SiblingOrder(t *testing.T) {
	names := []string{"zeta", "alpha", "Mid", "alpha", "0"}
	var children []*Node
	var fields []Field
	for i, n := range names {
		children = append(children, NewLeaf(n))
		fields = append(fields, Field{Name: n, Value: strings.Repeat("x", i), Modified: int64(i) * 1000})
	}
	children = append(children, NewLeaf("fields", fields...))
	b, err := Encode(NewHolder("root", children...))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	back, err := Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i, n := range names {
		if back.Children[i].Name != n {
			t.Fatalf("child %d = %q, want %q", i, back.Children[i].Name, n)
		}
		f := back.Children[len(names)].Fields[i]
		if f.Name != n || len(f.Value) != i {
			t.Fatalf("field %d = %+v", i, f)
		}
	}
}

func TestEncode_EmptyHolderAndLeaf(t *testing.T) {
	tests := []struct {
		name string
		tree *Node
		want string
	}{
		{"empty holder root", NewHolder("r"), "PASSNOTEe-r\x00"},
		{"nil children", &Node{Name: "r"}, "PASSNOTEe-r\x00"},
		{"empty leaf root", NewLeaf("x"), "PASSNOTEl-x\x00"},
		{"empty leaf then sibling", NewHolder("r", NewLeaf("a"), NewHolder("b")), "PASSNOTEh-r\x00l+a\x00e-b\x00"},
		{"leaf with fields then sibling", NewHolder("r", NewLeaf("a", Field{Name: "n", Value: "v", Modified: 31000}), NewLeaf("b")), "PASSNOTEh-r\x00l+a\x00f-1f\x00n\x00v\x00l-b\x00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(tt.tree)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			want := tt.want + string(terminator[:])
			if string(got) != want {
				t.Fatalf("got %q, want %q", got, want)
			}
			back, err := Decode(got)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !Equal(back, tt.tree) {
				t.Fatalf("decoded %+v, want %+v", back, tt.tree)
			}
			if !back.Leaf && back.Children == nil {
				t.Fatalf("decoded holder has nil children")
			}
			if back.Leaf && back.Fields == nil {
				t.Fatalf("decoded leaf has nil fields")
			}
		})
	}
}

func TestEncode_TimestampRounding(t *testing.T) {
	tests := []struct {
		ms   int64
		want string
	}{
		{0, "0"},
		{499, "0"},
		{500, "1"},
		{1499, "1"},
		{1500, "2"},
		{255000, "ff"},
		{1700000000000, "6553f100"},
	}
	for _, tt := range tests {
		got, err := Encode(NewLeaf("l", Field{Name: "n", Value: "v", Modified: tt.ms}))
		if err != nil {
			t.Fatalf("Encode(%d): %v", tt.ms, err)
		}
		want := "PASSNOTEl-l\x00f-" + tt.want + "\x00n\x00v\x00" + string(terminator[:])
		if string(got) != want {
			t.Fatalf("ms=%d: got %q, want %q", tt.ms, got, want)
		}
	}
}

func TestEncode_InvalidCharacter(t *testing.T) {
	tests := []*Node{
		NewHolder("ro\x00ot"),
		NewHolder("root", NewLeaf("a\x00")),
		NewLeaf("l", Field{Name: "n\x00", Value: "v"}),
		NewLeaf("l", Field{Name: "n", Value: "v\x00"}),
	}
	for i, tree := range tests {
		b, err := Encode(tree)
		if !errors.Is(err, InvalidCharacter) {
			t.Fatalf("case %d: expected InvalidCharacter, got %v", i, err)
		}
		if b != nil {
			t.Fatalf("case %d: expected no output on error", i)
		}
	}
}

func TestEncode_NegativeModified(t *testing.T) {
	_, err := Encode(NewLeaf("l", Field{Name: "n", Value: "v", Modified: -1}))
	if KindOf(err) != MalformedNumber {
		t.Fatalf("expected MalformedNumber, got %v", err)
	}
}

func nested(depth int) *Node {
	n := NewHolder("bottom")
	for i := 1; i < depth; i++ {
		n = NewHolder("level", n)
	}
	return n
}

func TestMaxDepth(t *testing.T) {
	tree := nested(5)
	if _, err := (Encoder{MaxDepth: 4}).Encode(tree); !errors.Is(err, TooDeep) {
		t.Fatalf("expected TooDeep on encode, got %v", err)
	}
	b, err := (Encoder{MaxDepth: 5}).Encode(tree)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := (Decoder{MaxDepth: 4}).Decode(b); !errors.Is(err, TooDeep) {
		t.Fatalf("expected TooDeep on decode, got %v", err)
	}
	if _, err := (Decoder{MaxDepth: 5}).Decode(b); err != nil {
		t.Fatalf("Decode: %v", err)
	}
}

func TestDecode_Rejects(t *testing.T) {
	term := string(terminator[:])
	tests := []struct {
		name  string
		input string
		kind  Kind
	}{
		{"empty", "", BadMagic},
		{"short magic", "PASSNOT", BadMagic},
		{"zero magic", "\x00\x00\x00\x00\x00\x00\x00\x00e-r\x00" + term, BadMagic},
		{"wrong eighth byte", "PASSNOTXe-r\x00" + term, BadMagic},
		{"lowercase magic", "passnotee-r\x00" + term, BadMagic},
		{"unknown node tag", "PASSNOTEx-r\x00" + term, UnknownTag},
		{"unknown child tag", "PASSNOTEh-r\x00q-a\x00" + term, UnknownTag},
		{"bad continuation", "PASSNOTEe?r\x00" + term, UnknownTag},
		{"root continuation +", "PASSNOTEe+r\x00" + term, UnknownTag},
		{"leaf root continuation +", "PASSNOTEl+r\x00" + term, UnknownTag},
		{"bad field continuation", "PASSNOTEl-r\x00f*1\x00n\x00v\x00" + term, UnknownTag},
		{"field expected", "PASSNOTEl-r\x00f+1\x00n\x00v\x00l-x\x00" + term, UnknownTag},
		{"non-hex timestamp", "PASSNOTEl-r\x00f-zz\x00n\x00v\x00" + term, MalformedNumber},
		{"empty timestamp", "PASSNOTEl-r\x00f-\x00n\x00v\x00" + term, MalformedNumber},
		{"signed timestamp", "PASSNOTEl-r\x00f--1\x00n\x00v\x00" + term, MalformedNumber},
		{"overflowing timestamp", "PASSNOTEl-r\x00f-ffffffffffffffffff\x00n\x00v\x00" + term, MalformedNumber},
		{"too large for millis", "PASSNOTEl-r\x00f-7fffffffffffffff\x00n\x00v\x00" + term, MalformedNumber},
		{"no root", "PASSNOTE", TruncatedInput},
		{"half header", "PASSNOTEh", TruncatedInput},
		{"unterminated name", "PASSNOTEe-root", TruncatedInput},
		{"leaf at end of input", "PASSNOTEl-r\x00", TruncatedInput},
		{"holder without children", "PASSNOTEh-r\x00", TruncatedInput},
		{"unterminated value", "PASSNOTEl-r\x00f-1\x00n\x00value", TruncatedInput},
		{"missing terminator", "PASSNOTEe-r\x00", BadTerminator},
		{"short terminator", "PASSNOTEe-r\x00\x00\x00\x00", BadTerminator},
		{"nonzero terminator", "PASSNOTEe-r\x00" + "\x00\x00\x00\x00\x00\x00\x00\x01", BadTerminator},
		{"trailing bytes", "PASSNOTEe-r\x00" + term + "x", BadTerminator},
		{"extra sibling after root", "PASSNOTEe+r\x00e-s\x00" + term, UnknownTag},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Decode([]byte(tt.input))
			if err == nil {
				t.Fatalf("expected error, got tree %+v", n)
			}
			if n != nil {
				t.Fatalf("expected no partial tree")
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("expected structured *protocol.Error, got %T", err)
			}
			if e.Kind != tt.kind {
				t.Fatalf("expected %s, got %s (%v)", tt.kind, e.Kind, err)
			}
			if !errors.Is(err, tt.kind) {
				t.Fatalf("errors.Is(err, %s) = false", tt.kind)
			}
		})
	}
}

func TestDecode_UppercaseHex(t *testing.T) {
	n, err := Decode([]byte("PASSNOTEl-r\x00f-FF\x00n\x00v\x00" + string(terminator[:])))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n.Fields[0].Modified != 255000 {
		t.Fatalf("modified = %d", n.Fields[0].Modified)
	}
}

func TestDecode_EveryPrefixFails(t *testing.T) {
	b, err := Encode(sample())
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	for i := 0; i < len(b); i++ {
		_, err := Decode(b[:i])
		switch k := KindOf(err); {
		case i < len(Magic):
			if k != BadMagic {
				t.Fatalf("prefix %d: expected BadMagic, got %v", i, err)
			}
		case k != TruncatedInput && k != BadTerminator:
			t.Fatalf("prefix %d: expected TruncatedInput or BadTerminator, got %v", i, err)
		}
	}
	if _, err := Decode(b[:len(b)-1]); !errors.Is(err, BadTerminator) {
		t.Fatalf("last byte removed: expected BadTerminator, got %v", err)
	}
}

func TestDecode_RootContinuationOffset(t *testing.T) {
	_, err := Decode([]byte("PASSNOTEe+r\x00" + string(terminator[:])))
	var e *Error
	if !errors.As(err, &e) || e.Kind != UnknownTag || e.Offset != 9 {
		t.Fatalf("err = %v, want UnknownTag at offset 9", err)
	}
}

func TestDecode_ErrorOffset(t *testing.T) {
	_, err := Decode([]byte("PASSNOTEh-r\x00l+a\x00z-b\x00"))
	var e *Error
	if !errors.As(err, &e) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if e.Offset != 16 {
		t.Fatalf("offset = %d, want 16", e.Offset)
	}
	if !strings.Contains(e.Error(), "offset 16") {
		t.Fatalf("message %q lacks offset", e.Error())
	}
}
