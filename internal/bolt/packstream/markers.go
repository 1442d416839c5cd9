// Package packstream implements the PackStream binary value codec
// described in spec §4.3: marker bytes for null, booleans, signed
// integers, IEEE-754 doubles, UTF-8 strings, byte arrays, lists, maps,
// and tagged structures.
//
// It is grounded in the teacher driver's encoding/encoder.go and
// encoding/decoder.go marker tables and smallest-width integer encoding,
// generalized to decode into plain Go values (nil, bool, int64, float64,
// string, []byte, []interface{}, map[string]interface{}, *Struct) rather
// than server-specific message types - the struct handler registry above
// this layer (internal/bolt/structhandlers) maps tags to domain values.
package packstream

const (
	// NilMarker represents the encoding marker byte for a nil object.
	NilMarker = 0xC0

	// TrueMarker represents the encoding marker byte for a true boolean object.
	TrueMarker = 0xC3
	// FalseMarker represents the encoding marker byte for a false boolean object.
	FalseMarker = 0xC2

	// Int8Marker represents the encoding marker byte for an int8-width object.
	Int8Marker = 0xC8
	// Int16Marker represents the encoding marker byte for an int16-width object.
	Int16Marker = 0xC9
	// Int32Marker represents the encoding marker byte for an int32-width object.
	Int32Marker = 0xCA
	// Int64Marker represents the encoding marker byte for an int64-width object.
	Int64Marker = 0xCB

	// FloatMarker represents the encoding marker byte for a float64 object.
	FloatMarker = 0xC1

	// Bytes8Marker/Bytes16Marker/Bytes32Marker represent the encoding marker bytes for a byte array.
	Bytes8Marker  = 0xCC
	Bytes16Marker = 0xCD
	Bytes32Marker = 0xCE

	// TinyStringMarker represents the encoding marker byte range for short strings.
	TinyStringMarker = 0x80
	String8Marker    = 0xD0
	String16Marker   = 0xD1
	String32Marker   = 0xD2

	// TinyListMarker represents the encoding marker byte range for short lists.
	TinyListMarker = 0x90
	List8Marker    = 0xD4
	List16Marker   = 0xD5
	List32Marker   = 0xD6

	// TinyMapMarker represents the encoding marker byte range for short maps.
	TinyMapMarker = 0xA0
	Map8Marker    = 0xD8
	Map16Marker   = 0xD9
	Map32Marker   = 0xDA

	// TinyStructMarker represents the encoding marker byte range for short structs.
	TinyStructMarker = 0xB0
	Struct8Marker    = 0xDC
	Struct16Marker   = 0xDD
)

// tinyIntMin/tinyIntMax bound the single-byte two's-complement "tiny int"
// range [-16, 127] described in spec §4.3.
const (
	tinyIntMin = -16
	tinyIntMax = 127
)
