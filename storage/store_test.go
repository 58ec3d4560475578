package storage

import (
	"reflect"
	"testing"
)

type profile struct {
	UID       string   `json:"uid"`
	Name      string   `json:"displayName"`
	Boards    []string `json:"boards,omitempty"`
	Favourite string   `json:"favourite,omitempty"`
}

func TestEncodeDecodeDocument(t *testing.T) {
	in := profile{UID: "u1", Name: "Ada", Boards: []string{"b1", "b2"}}
	doc, err := Encode(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, ok := doc["uid"]; !ok {
		t.Fatalf("missing uid field: %v", doc)
	}
	if _, ok := doc["favourite"]; ok {
		t.Fatal("omitempty field should not be encoded")
	}

	var out profile
	if err := Decode(doc, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Fatalf("round trip mismatch: %#v vs %#v", in, out)
	}
}

func TestFieldEncodesSingleValue(t *testing.T) {
	raw, err := Field([]string{"u1", "u2"})
	if err != nil {
		t.Fatalf("field: %v", err)
	}
	doc := Document{"users": raw}
	if !matchMembership(doc, "users", "u2") {
		t.Fatal("encoded field not matchable")
	}
	if matchMembership(doc, "users", "u9") {
		t.Fatal("unexpected membership match")
	}
}
