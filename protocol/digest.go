package protocol

import (
	"encoding/hex"

	"github.com/fxamacker/cbor/v2"
	"github.com/zeebo/blake3"
)

type Hash [32]byte

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

var encMode cbor.EncMode

func init() {
	var err error
	encMode, err = cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
}

// MarshalCanonical returns the canonical CBOR form of the tree.
// Nil and empty child or field lists encode identically.
func MarshalCanonical(n *Node) ([]byte, error) {
	return encMode.Marshal(n)
}

// Digest is the BLAKE3 hash of the tree's canonical CBOR form. Two
// trees have the same digest exactly when they are structurally equal.
func Digest(n *Node) (Hash, error) {
	b, err := MarshalCanonical(n)
	if err != nil {
		return Hash{}, err
	}
	return Hash(blake3.Sum256(b)), nil
}

// Equal reports whether two trees are structurally equal.
func Equal(a, b *Node) bool {
	ha, err := Digest(a)
	if err != nil {
		return false
	}
	hb, err := Digest(b)
	if err != nil {
		return false
	}
	return ha == hb
}
