package structhandlers

import "github.com/mindstand/golang-bolt-driver/errors"

// asInt64 accepts the int64 the decoder always produces for PackStream
// integers (see packstream.Decoder) but also plain int/int32, so handlers
// stay usable when callers build values by hand rather than off the wire.
func asInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	default:
		return 0, errors.NewProtocol("expected integer field, got %T", v)
	}
}

func asFloat64(v interface{}) (float64, error) {
	f, ok := v.(float64)
	if !ok {
		return 0, errors.NewProtocol("expected float field, got %T", v)
	}
	return f, nil
}

func asStringSlice(v interface{}) ([]string, error) {
	raw, ok := v.([]interface{})
	if !ok {
		return nil, errors.NewProtocol("expected list field, got %T", v)
	}
	out := make([]string, len(raw))
	for i, item := range raw {
		s, ok := item.(string)
		if !ok {
			return nil, errors.NewProtocol("expected string at index %d, got %T", i, item)
		}
		out[i] = s
	}
	return out, nil
}

func stringSliceToFields(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func asPropertyMap(v interface{}) (map[string]interface{}, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return nil, errors.NewProtocol("expected map field, got %T", v)
	}
	return m, nil
}
