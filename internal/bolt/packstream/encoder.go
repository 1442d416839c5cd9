package packstream

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/mindstand/golang-bolt-driver/errors"
)

// Encoder writes PackStream-encoded values to an underlying io.Writer -
// ordinarily an *chunk.Writer, so that marker bytes land inside the
// chunked framing layer below without this package knowing about chunk
// boundaries at all.
//
// Grounded in the teacher's encoding/encoder.go: the marker table and the
// smallest-width integer selection switch are carried over verbatim in
// spirit, generalized to operate on the Value universe of spec §3
// instead of bare interface{} aimed only at the teacher's message set.
type Encoder struct {
	w io.Writer
}

// NewEncoder wraps w with an Encoder.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one PackStream-encoded value to the stream. It does not
// flush or terminate the underlying chunk writer - callers drive message
// boundaries explicitly (the message engine calls chunk.Writer.EndMessage
// once per request message, §4.4).
func (e *Encoder) Encode(v interface{}) error {
	switch val := v.(type) {
	case nil:
		return e.writeByte(NilMarker)
	case bool:
		return e.encodeBool(val)
	case int:
		return e.encodeInt(int64(val))
	case int8:
		return e.encodeInt(int64(val))
	case int16:
		return e.encodeInt(int64(val))
	case int32:
		return e.encodeInt(int64(val))
	case int64:
		return e.encodeInt(val)
	case uint:
		return e.encodeUint(uint64(val))
	case uint8:
		return e.encodeInt(int64(val))
	case uint16:
		return e.encodeInt(int64(val))
	case uint32:
		return e.encodeInt(int64(val))
	case uint64:
		return e.encodeUint(val)
	case float32:
		return e.encodeFloat(float64(val))
	case float64:
		return e.encodeFloat(val)
	case string:
		return e.encodeString(val)
	case []byte:
		return e.encodeBytes(val)
	case []interface{}:
		return e.encodeList(val)
	case map[string]interface{}:
		return e.encodeMap(val)
	case *Struct:
		return e.encodeStruct(val)
	case Struct:
		return e.encodeStruct(&val)
	default:
		return errors.NewClient("unrecognized type when encoding PackStream value: %T %+v", val, val)
	}
}

func (e *Encoder) writeByte(b byte) error {
	_, err := e.w.Write([]byte{b})
	return err
}

func (e *Encoder) write(v interface{}) error {
	return binary.Write(e.w, binary.BigEndian, v)
}

func (e *Encoder) encodeBool(val bool) error {
	if val {
		return e.writeByte(TrueMarker)
	}
	return e.writeByte(FalseMarker)
}

func (e *Encoder) encodeUint(val uint64) error {
	if val > math.MaxInt64 {
		return errors.NewClient("integer too large to encode: %d (max %d)", val, int64(math.MaxInt64))
	}
	return e.encodeInt(int64(val))
}

// encodeInt picks the smallest marker that represents val exactly, per
// spec §4.3/§8 property 2: e.g. 0 -> 0x00, 127 -> 0x7F, -16 -> 0xF0,
// -17 -> 0xC8 0xEF, 200 -> 0xC9 00 C8, 70000 -> 0xCA 00 01 11 70.
func (e *Encoder) encodeInt(val int64) error {
	switch {
	case val >= tinyIntMin && val <= tinyIntMax:
		return e.write(int8(val))
	case val >= math.MinInt8 && val <= math.MaxInt8:
		if err := e.writeByte(Int8Marker); err != nil {
			return err
		}
		return e.write(int8(val))
	case val >= math.MinInt16 && val <= math.MaxInt16:
		if err := e.writeByte(Int16Marker); err != nil {
			return err
		}
		return e.write(int16(val))
	case val >= math.MinInt32 && val <= math.MaxInt32:
		if err := e.writeByte(Int32Marker); err != nil {
			return err
		}
		return e.write(int32(val))
	default:
		if err := e.writeByte(Int64Marker); err != nil {
			return err
		}
		return e.write(val)
	}
}

func (e *Encoder) encodeFloat(val float64) error {
	if err := e.writeByte(FloatMarker); err != nil {
		return err
	}
	return e.write(val)
}

func (e *Encoder) encodeString(val string) error {
	b := []byte(val)
	length := len(b)
	switch {
	case length <= 15:
		if err := e.writeByte(byte(TinyStringMarker + length)); err != nil {
			return err
		}
	case length <= math.MaxUint8:
		if err := e.writeByte(String8Marker); err != nil {
			return err
		}
		if err := e.write(uint8(length)); err != nil {
			return err
		}
	case length <= math.MaxUint16:
		if err := e.writeByte(String16Marker); err != nil {
			return err
		}
		if err := e.write(uint16(length)); err != nil {
			return err
		}
	default:
		if err := e.writeByte(String32Marker); err != nil {
			return err
		}
		if err := e.write(uint32(length)); err != nil {
			return err
		}
	}
	_, err := e.w.Write(b)
	return err
}

func (e *Encoder) encodeBytes(val []byte) error {
	length := len(val)
	switch {
	case length <= math.MaxUint8:
		if err := e.writeByte(Bytes8Marker); err != nil {
			return err
		}
		if err := e.write(uint8(length)); err != nil {
			return err
		}
	case length <= math.MaxUint16:
		if err := e.writeByte(Bytes16Marker); err != nil {
			return err
		}
		if err := e.write(uint16(length)); err != nil {
			return err
		}
	default:
		if err := e.writeByte(Bytes32Marker); err != nil {
			return err
		}
		if err := e.write(uint32(length)); err != nil {
			return err
		}
	}
	_, err := e.w.Write(val)
	return err
}

func (e *Encoder) encodeList(val []interface{}) error {
	length := len(val)
	if err := e.writeContainerHeader(length, TinyListMarker, List8Marker, List16Marker, List32Marker); err != nil {
		return err
	}
	for _, item := range val {
		if err := e.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeMap(val map[string]interface{}) error {
	length := len(val)
	if err := e.writeContainerHeader(length, TinyMapMarker, Map8Marker, Map16Marker, Map32Marker); err != nil {
		return err
	}
	for k, v := range val {
		if err := e.encodeString(k); err != nil {
			return err
		}
		if err := e.Encode(v); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) encodeStruct(val *Struct) error {
	length := len(val.Fields)
	if length > math.MaxUint16 {
		return errors.NewClient("struct too large to encode: %d fields", length)
	}
	switch {
	case length <= 15:
		if err := e.writeByte(byte(TinyStructMarker + length)); err != nil {
			return err
		}
	case length <= math.MaxUint8:
		if err := e.writeByte(Struct8Marker); err != nil {
			return err
		}
		if err := e.write(uint8(length)); err != nil {
			return err
		}
	default:
		if err := e.writeByte(Struct16Marker); err != nil {
			return err
		}
		if err := e.write(uint16(length)); err != nil {
			return err
		}
	}
	if err := e.writeByte(val.Tag); err != nil {
		return err
	}
	for _, field := range val.Fields {
		if err := e.Encode(field); err != nil {
			return err
		}
	}
	return nil
}

func (e *Encoder) writeContainerHeader(length int, tinyBase, m8, m16, m32 byte) error {
	switch {
	case length <= 15:
		return e.writeByte(byte(int(tinyBase) + length))
	case length <= math.MaxUint8:
		if err := e.writeByte(m8); err != nil {
			return err
		}
		return e.write(uint8(length))
	case length <= math.MaxUint16:
		if err := e.writeByte(m16); err != nil {
			return err
		}
		return e.write(uint16(length))
	default:
		if err := e.writeByte(m32); err != nil {
			return err
		}
		return e.write(uint32(length))
	}
}
