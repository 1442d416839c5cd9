package structhandlers

import (
	"testing"

	"github.com/mindstand/golang-bolt-driver/internal/bolt/packstream"
	"github.com/mindstand/golang-bolt-driver/structures/graph"
)

func TestDecodeStructArityMismatch(t *testing.T) {
	r := NewRegistry()

	// Node (tag 0x4E) has arity 3: identity, labels, properties. Give it
	// only two fields.
	short := &packstream.Struct{Tag: TagNode, Fields: []interface{}{int64(1), []interface{}{"Person"}}}
	if _, err := r.DecodeStruct(short); err == nil {
		t.Fatal("expected arity mismatch error for short struct, got nil")
	}

	// And one field too many.
	long := &packstream.Struct{Tag: TagNode, Fields: []interface{}{
		int64(1), []interface{}{"Person"}, map[string]interface{}{}, "extra",
	}}
	if _, err := r.DecodeStruct(long); err == nil {
		t.Fatal("expected arity mismatch error for long struct, got nil")
	}
}

func TestDecodeStructRoundTripsNode(t *testing.T) {
	r := NewRegistry()
	s := &packstream.Struct{Tag: TagNode, Fields: []interface{}{
		int64(42),
		[]interface{}{"Person", "Actor"},
		map[string]interface{}{"name": "Keanu"},
	}}

	v, err := r.DecodeStruct(s)
	if err != nil {
		t.Fatalf("DecodeStruct: %v", err)
	}
	node, ok := v.(graph.Node)
	if !ok {
		t.Fatalf("DecodeStruct returned %T, want graph.Node", v)
	}
	if node.NodeIdentity != 42 || len(node.Labels) != 2 || node.Properties["name"] != "Keanu" {
		t.Fatalf("unexpected node: %#v", node)
	}

	encoded, ok, err := r.EncodeValue(node)
	if err != nil {
		t.Fatalf("EncodeValue: %v", err)
	}
	if !ok {
		t.Fatal("EncodeValue did not recognize graph.Node")
	}
	if encoded.Tag != TagNode || len(encoded.Fields) != 3 {
		t.Fatalf("unexpected encoded struct: %#v", encoded)
	}
}

func TestDecodeStructUnrecognizedTagPassesThrough(t *testing.T) {
	r := NewRegistry()
	s := &packstream.Struct{Tag: 0xAA, Fields: []interface{}{int64(1)}}
	v, err := r.DecodeStruct(s)
	if err != nil {
		t.Fatalf("DecodeStruct: %v", err)
	}
	if v != interface{}(s) {
		t.Fatalf("expected unrecognized struct to pass through unchanged, got %#v", v)
	}
}
