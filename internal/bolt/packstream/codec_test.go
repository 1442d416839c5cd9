package packstream

import (
	"bytes"
	"math"
	"reflect"
	"testing"
)

func roundTrip(t *testing.T, v interface{}) interface{} {
	t.Helper()
	var buf bytes.Buffer
	if err := NewEncoder(&buf).Encode(v); err != nil {
		t.Fatalf("encode(%#v): %v", v, err)
	}
	got, err := NewDecoder(buf.Bytes()).Decode()
	if err != nil {
		t.Fatalf("decode(encode(%#v)): %v", v, err)
	}
	return got
}

func TestRoundTripScalars(t *testing.T) {
	cases := []interface{}{
		nil,
		true,
		false,
		int64(0),
		int64(127),
		int64(-16),
		int64(-17),
		int64(200),
		int64(70000),
		int64(math.MaxInt64),
		int64(math.MinInt64),
		float64(0),
		float64(-1.5),
		math.Inf(1),
		math.Inf(-1),
		"",
		"hello, é\U0001F600",
		[]byte{},
		[]byte{1, 2, 3},
	}
	for _, c := range cases {
		got := roundTrip(t, c)
		switch want := c.(type) {
		case []byte:
			gotBytes, ok := got.([]byte)
			if !ok || !bytes.Equal(gotBytes, want) {
				t.Errorf("round trip %#v: got %#v", c, got)
			}
		default:
			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip %#v: got %#v", c, got)
			}
		}
	}
}

func TestRoundTripNaN(t *testing.T) {
	got := roundTrip(t, math.NaN())
	f, ok := got.(float64)
	if !ok || !math.IsNaN(f) {
		t.Fatalf("round trip NaN: got %#v", got)
	}
}

func TestRoundTripEmptyAndNestedCollections(t *testing.T) {
	list := []interface{}{}
	if got := roundTrip(t, list); len(got.([]interface{})) != 0 {
		t.Errorf("empty list round trip: got %#v", got)
	}

	m := map[string]interface{}{}
	if got := roundTrip(t, m); len(got.(map[string]interface{})) != 0 {
		t.Errorf("empty map round trip: got %#v", got)
	}

	nested := []interface{}{int64(1), "two", []interface{}{int64(3)}}
	got := roundTrip(t, nested)
	if !reflect.DeepEqual(got, nested) {
		t.Errorf("nested list round trip: got %#v, want %#v", got, nested)
	}
}

func TestIntegerSmallestWidthMarker(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7F}},
		{-16, []byte{0xF0}},
		{-17, []byte{0xC8, 0xEF}},
		{200, []byte{0xC9, 0x00, 0xC8}},
		{70000, []byte{0xCA, 0x00, 0x01, 0x11, 0x70}},
	}
	for _, c := range cases {
		var buf bytes.Buffer
		if err := NewEncoder(&buf).Encode(c.v); err != nil {
			t.Fatalf("encode(%d): %v", c.v, err)
		}
		if !bytes.Equal(buf.Bytes(), c.want) {
			t.Errorf("encode(%d) = % x, want % x", c.v, buf.Bytes(), c.want)
		}
	}
}

func TestDecodeDuplicateMapKeyIsError(t *testing.T) {
	var buf bytes.Buffer
	enc := NewEncoder(&buf)
	// Hand-build a tiny map with a duplicate key: TinyMap marker (0xA2,
	// two entries) followed by "a" twice.
	if err := enc.writeByte(0xA2); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode("a"); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(int64(1)); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode("a"); err != nil {
		t.Fatal(err)
	}
	if err := enc.Encode(int64(2)); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDecoder(buf.Bytes()).Decode(); err == nil {
		t.Fatal("expected decode error for duplicate map key, got nil")
	}
}
