package structhandlers

import (
	"reflect"

	"github.com/mindstand/golang-bolt-driver/errors"
	"github.com/mindstand/golang-bolt-driver/internal/bolt/packstream"
	"github.com/mindstand/golang-bolt-driver/structures/graph"
	"github.com/mindstand/golang-bolt-driver/structures/messages"
	"github.com/mindstand/golang-bolt-driver/structures/spatial"
	"github.com/mindstand/golang-bolt-driver/structures/temporal"
)

// Handler binds one struct tag to one Go type, in both directions: Decode
// turns a packstream.Struct's fields into the domain value, Encode does
// the reverse. Arity is the exact field count the tag requires; a
// mismatch is a protocol error rather than a silent truncation/padding
// (spec §8 property 4).
type Handler struct {
	Tag    byte
	Arity  int
	Decode func(fields []interface{}) (interface{}, error)
	Encode func(v interface{}) ([]interface{}, error)
}

// Registry is the two-map struct handler table spec §4.3 calls for: one
// keyed by tag byte for decoding off the wire, one keyed by Go type for
// encoding onto it. Grounded in the teacher's decodeStruct tag switch
// (encoding/decoder.go) and the per-type Signature()/AllFields() methods
// it replaces, now centralized instead of scattered across value types.
type Registry struct {
	byTag  map[byte]*Handler
	byKind map[reflect.Type]*Handler
}

// NewRegistry builds a Registry with every default handler registered.
func NewRegistry() *Registry {
	r := &Registry{
		byTag:  make(map[byte]*Handler),
		byKind: make(map[reflect.Type]*Handler),
	}
	registerDefaults(r)
	return r
}

func (r *Registry) register(typ reflect.Type, h *Handler) {
	r.byTag[h.Tag] = h
	r.byKind[typ] = h
}

// DecodeStruct maps a decoded packstream.Struct to its domain value. An
// unrecognized tag is returned as the raw *packstream.Struct unchanged,
// since callers that only need a subset of the struct family (message
// dispatch, e.g.) still need the bytes even if no handler claims them.
func (r *Registry) DecodeStruct(s *packstream.Struct) (interface{}, error) {
	h, ok := r.byTag[s.Tag]
	if !ok {
		return s, nil
	}
	if len(s.Fields) != h.Arity {
		return nil, errors.NewProtocol("struct tag 0x%x expects %d fields, got %d", s.Tag, h.Arity, len(s.Fields))
	}
	return h.Decode(s.Fields)
}

// Resolve walks a value produced by packstream.Decoder.Decode and
// replaces every *packstream.Struct it finds, at any depth, with its
// mapped domain value - needed because a Path's fields are themselves
// lists of Node/UnboundRelationship structs, which the codec layer has
// no way to resolve on its own (it only knows about packstream.Struct).
func (r *Registry) Resolve(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case *packstream.Struct:
		resolvedFields := make([]interface{}, len(val.Fields))
		for i, f := range val.Fields {
			rf, err := r.Resolve(f)
			if err != nil {
				return nil, err
			}
			resolvedFields[i] = rf
		}
		return r.DecodeStruct(&packstream.Struct{Tag: val.Tag, Fields: resolvedFields})
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			r2, err := r.Resolve(item)
			if err != nil {
				return nil, err
			}
			out[i] = r2
		}
		return out, nil
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			r2, err := r.Resolve(item)
			if err != nil {
				return nil, err
			}
			out[k] = r2
		}
		return out, nil
	default:
		return v, nil
	}
}

// EncodeValue maps a domain value to a *packstream.Struct ready for the
// encoder. Returns (nil, false) when v's type has no registered handler,
// so callers can fall through to the encoder's own primitive handling.
func (r *Registry) EncodeValue(v interface{}) (*packstream.Struct, bool, error) {
	h, ok := r.byKind[reflect.TypeOf(v)]
	if !ok {
		return nil, false, nil
	}
	fields, err := h.Encode(v)
	if err != nil {
		return nil, false, err
	}
	if len(fields) != h.Arity {
		return nil, false, errors.NewClient("handler for tag 0x%x produced %d fields, want %d", h.Tag, len(fields), h.Arity)
	}
	return &packstream.Struct{Tag: h.Tag, Fields: fields}, true, nil
}

func registerDefaults(r *Registry) {
	registerGraphHandlers(r)
	registerMessageHandlers(r)
	registerSpatialHandlers(r)
	registerTemporalHandlers(r)
}

func registerGraphHandlers(r *Registry) {
	r.register(reflect.TypeOf(graph.Node{}), &Handler{
		Tag:   TagNode,
		Arity: 3,
		Decode: func(f []interface{}) (interface{}, error) {
			identity, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			labels, err := asStringSlice(f[1])
			if err != nil {
				return nil, err
			}
			props, err := asPropertyMap(f[2])
			if err != nil {
				return nil, err
			}
			return graph.Node{NodeIdentity: identity, Labels: labels, Properties: props}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			n := v.(graph.Node)
			return []interface{}{n.NodeIdentity, stringSliceToFields(n.Labels), n.Properties}, nil
		},
	})

	r.register(reflect.TypeOf(graph.Relationship{}), &Handler{
		Tag:   TagRelationship,
		Arity: 5,
		Decode: func(f []interface{}) (interface{}, error) {
			id, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			start, err := asInt64(f[1])
			if err != nil {
				return nil, err
			}
			end, err := asInt64(f[2])
			if err != nil {
				return nil, err
			}
			relType, ok := f[3].(string)
			if !ok {
				return nil, errors.NewProtocol("relationship type must be a string, got %T", f[3])
			}
			props, err := asPropertyMap(f[4])
			if err != nil {
				return nil, err
			}
			return graph.Relationship{
				RelIdentity:       id,
				StartNodeIdentity: start,
				EndNodeIdentity:   end,
				Type:              relType,
				Properties:        props,
			}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			rel := v.(graph.Relationship)
			return []interface{}{rel.RelIdentity, rel.StartNodeIdentity, rel.EndNodeIdentity, rel.Type, rel.Properties}, nil
		},
	})

	r.register(reflect.TypeOf(graph.UnboundRelationship{}), &Handler{
		Tag:   TagUnboundRelationship,
		Arity: 3,
		Decode: func(f []interface{}) (interface{}, error) {
			id, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			relType, ok := f[1].(string)
			if !ok {
				return nil, errors.NewProtocol("relationship type must be a string, got %T", f[1])
			}
			props, err := asPropertyMap(f[2])
			if err != nil {
				return nil, err
			}
			return graph.UnboundRelationship{RelIdentity: id, Type: relType, Properties: props}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			rel := v.(graph.UnboundRelationship)
			return []interface{}{rel.RelIdentity, rel.Type, rel.Properties}, nil
		},
	})

	r.register(reflect.TypeOf(graph.Path{}), &Handler{
		Tag:   TagPath,
		Arity: 3,
		Decode: func(f []interface{}) (interface{}, error) {
			rawNodes, ok := f[0].([]interface{})
			if !ok {
				return nil, errors.NewProtocol("path nodes must be a list, got %T", f[0])
			}
			nodes := make([]graph.Node, len(rawNodes))
			for i, rn := range rawNodes {
				n, ok := rn.(graph.Node)
				if !ok {
					return nil, errors.NewProtocol("path node %d is not a decoded Node: %T", i, rn)
				}
				nodes[i] = n
			}

			rawRels, ok := f[1].([]interface{})
			if !ok {
				return nil, errors.NewProtocol("path relationships must be a list, got %T", f[1])
			}
			rels := make([]graph.UnboundRelationship, len(rawRels))
			for i, rr := range rawRels {
				rel, ok := rr.(graph.UnboundRelationship)
				if !ok {
					return nil, errors.NewProtocol("path relationship %d is not a decoded UnboundRelationship: %T", i, rr)
				}
				rels[i] = rel
			}

			rawSeq, ok := f[2].([]interface{})
			if !ok {
				return nil, errors.NewProtocol("path sequence must be a list, got %T", f[2])
			}
			seq := make([]int, len(rawSeq))
			for i, rs := range rawSeq {
				v, err := asInt64(rs)
				if err != nil {
					return nil, err
				}
				seq[i] = int(v)
			}

			return graph.Path{Nodes: nodes, Relationships: rels, Sequence: seq}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			p := v.(graph.Path)
			nodes := make([]interface{}, len(p.Nodes))
			for i, n := range p.Nodes {
				nodes[i] = n
			}
			rels := make([]interface{}, len(p.Relationships))
			for i, rel := range p.Relationships {
				rels[i] = rel
			}
			seq := make([]interface{}, len(p.Sequence))
			for i, s := range p.Sequence {
				seq[i] = s
			}
			return []interface{}{nodes, rels, seq}, nil
		},
	})
}

func registerMessageHandlers(r *Registry) {
	r.register(reflect.TypeOf(messages.HelloMessage{}), &Handler{
		Tag:   TagHello,
		Arity: 2,
		Decode: func(f []interface{}) (interface{}, error) {
			userAgent, ok := f[0].(string)
			if !ok {
				return nil, errors.NewProtocol("HELLO user agent must be a string, got %T", f[0])
			}
			authToken, err := asPropertyMap(f[1])
			if err != nil {
				return nil, err
			}
			return messages.NewHelloMessage(userAgent, authToken), nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			m := v.(messages.HelloMessage)
			return []interface{}{m.UserAgent, m.AuthToken}, nil
		},
	})

	r.register(reflect.TypeOf(messages.GoodbyeMessage{}), &Handler{
		Tag:    TagGoodbye,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewGoodbyeMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.ResetMessage{}), &Handler{
		Tag:    TagReset,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewResetMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.RunMessage{}), &Handler{
		Tag:   TagRun,
		Arity: 2,
		Decode: func(f []interface{}) (interface{}, error) {
			stmt, ok := f[0].(string)
			if !ok {
				return nil, errors.NewProtocol("RUN statement must be a string, got %T", f[0])
			}
			params, err := asPropertyMap(f[1])
			if err != nil {
				return nil, err
			}
			return messages.NewRunMessage(stmt, params), nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			m := v.(messages.RunMessage)
			return []interface{}{m.Statement, m.Parameters}, nil
		},
	})

	r.register(reflect.TypeOf(messages.BeginMessage{}), &Handler{
		Tag:   TagBegin,
		Arity: 1,
		Decode: func(f []interface{}) (interface{}, error) {
			meta, err := asPropertyMap(f[0])
			if err != nil {
				return nil, err
			}
			return messages.NewBeginMessage(meta), nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			m := v.(messages.BeginMessage)
			return []interface{}{m.Metadata}, nil
		},
	})

	r.register(reflect.TypeOf(messages.CommitMessage{}), &Handler{
		Tag:    TagCommit,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewCommitMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.RollbackMessage{}), &Handler{
		Tag:    TagRollback,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewRollbackMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.DiscardAllMessage{}), &Handler{
		Tag:    TagDiscardAll,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewDiscardAllMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.PullAllMessage{}), &Handler{
		Tag:    TagPullAll,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewPullAllMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.SuccessMessage{}), &Handler{
		Tag:   TagSuccess,
		Arity: 1,
		Decode: func(f []interface{}) (interface{}, error) {
			meta, err := asPropertyMap(f[0])
			if err != nil {
				return nil, err
			}
			return messages.NewSuccessMessage(meta), nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			m := v.(messages.SuccessMessage)
			return []interface{}{m.Metadata}, nil
		},
	})

	r.register(reflect.TypeOf(messages.FailureMessage{}), &Handler{
		Tag:   TagFailure,
		Arity: 1,
		Decode: func(f []interface{}) (interface{}, error) {
			meta, err := asPropertyMap(f[0])
			if err != nil {
				return nil, err
			}
			return messages.NewFailureMessage(meta), nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			m := v.(messages.FailureMessage)
			return []interface{}{m.Metadata}, nil
		},
	})

	r.register(reflect.TypeOf(messages.IgnoredMessage{}), &Handler{
		Tag:    TagIgnored,
		Arity:  0,
		Decode: func(f []interface{}) (interface{}, error) { return messages.NewIgnoredMessage(), nil },
		Encode: func(v interface{}) ([]interface{}, error) { return []interface{}{}, nil },
	})

	r.register(reflect.TypeOf(messages.RecordMessage{}), &Handler{
		Tag:   TagRecord,
		Arity: 1,
		Decode: func(f []interface{}) (interface{}, error) {
			fields, ok := f[0].([]interface{})
			if !ok {
				return nil, errors.NewProtocol("RECORD fields must be a list, got %T", f[0])
			}
			return messages.NewRecordMessage(fields), nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			m := v.(messages.RecordMessage)
			return []interface{}{m.Fields}, nil
		},
	})
}

func registerSpatialHandlers(r *Registry) {
	r.register(reflect.TypeOf(spatial.Point2D{}), &Handler{
		Tag:   TagPoint2D,
		Arity: 3,
		Decode: func(f []interface{}) (interface{}, error) {
			srid, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			x, err := asFloat64(f[1])
			if err != nil {
				return nil, err
			}
			y, err := asFloat64(f[2])
			if err != nil {
				return nil, err
			}
			return spatial.Point2D{SRID: srid, X: x, Y: y}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			p := v.(spatial.Point2D)
			return []interface{}{p.SRID, p.X, p.Y}, nil
		},
	})

	r.register(reflect.TypeOf(spatial.Point3D{}), &Handler{
		Tag:   TagPoint3D,
		Arity: 4,
		Decode: func(f []interface{}) (interface{}, error) {
			srid, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			x, err := asFloat64(f[1])
			if err != nil {
				return nil, err
			}
			y, err := asFloat64(f[2])
			if err != nil {
				return nil, err
			}
			z, err := asFloat64(f[3])
			if err != nil {
				return nil, err
			}
			return spatial.Point3D{SRID: srid, X: x, Y: y, Z: z}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			p := v.(spatial.Point3D)
			return []interface{}{p.SRID, p.X, p.Y, p.Z}, nil
		},
	})
}

func registerTemporalHandlers(r *Registry) {
	r.register(reflect.TypeOf(temporal.Date{}), &Handler{
		Tag:   TagDate,
		Arity: 1,
		Decode: func(f []interface{}) (interface{}, error) {
			days, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			return temporal.Date{Days: days}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			return []interface{}{v.(temporal.Date).Days}, nil
		},
	})

	r.register(reflect.TypeOf(temporal.Time{}), &Handler{
		Tag:   TagTime,
		Arity: 2,
		Decode: func(f []interface{}) (interface{}, error) {
			ns, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			off, err := asInt64(f[1])
			if err != nil {
				return nil, err
			}
			return temporal.Time{NanosecondsSinceMidnight: ns, TZOffsetSeconds: off}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			t := v.(temporal.Time)
			return []interface{}{t.NanosecondsSinceMidnight, t.TZOffsetSeconds}, nil
		},
	})

	r.register(reflect.TypeOf(temporal.LocalTime{}), &Handler{
		Tag:   TagLocalTime,
		Arity: 1,
		Decode: func(f []interface{}) (interface{}, error) {
			ns, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			return temporal.LocalTime{NanosecondsSinceMidnight: ns}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			return []interface{}{v.(temporal.LocalTime).NanosecondsSinceMidnight}, nil
		},
	})

	r.register(reflect.TypeOf(temporal.DateTimeOffset{}), &Handler{
		Tag:   TagDateTimeOffset,
		Arity: 3,
		Decode: func(f []interface{}) (interface{}, error) {
			sec, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			ns, err := asInt64(f[1])
			if err != nil {
				return nil, err
			}
			off, err := asInt64(f[2])
			if err != nil {
				return nil, err
			}
			return temporal.DateTimeOffset{Seconds: sec, Nanoseconds: ns, TZOffsetSeconds: off}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			t := v.(temporal.DateTimeOffset)
			return []interface{}{t.Seconds, t.Nanoseconds, t.TZOffsetSeconds}, nil
		},
	})

	r.register(reflect.TypeOf(temporal.DateTimeZoneID{}), &Handler{
		Tag:   TagDateTimeZoneID,
		Arity: 3,
		Decode: func(f []interface{}) (interface{}, error) {
			sec, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			ns, err := asInt64(f[1])
			if err != nil {
				return nil, err
			}
			tzid, ok := f[2].(string)
			if !ok {
				return nil, errors.NewProtocol("DateTimeZoneID zone id must be a string, got %T", f[2])
			}
			return temporal.DateTimeZoneID{Seconds: sec, Nanoseconds: ns, TZID: tzid}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			t := v.(temporal.DateTimeZoneID)
			return []interface{}{t.Seconds, t.Nanoseconds, t.TZID}, nil
		},
	})

	r.register(reflect.TypeOf(temporal.LocalDateTime{}), &Handler{
		Tag:   TagLocalDateTime,
		Arity: 2,
		Decode: func(f []interface{}) (interface{}, error) {
			sec, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			ns, err := asInt64(f[1])
			if err != nil {
				return nil, err
			}
			return temporal.LocalDateTime{Seconds: sec, Nanoseconds: ns}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			t := v.(temporal.LocalDateTime)
			return []interface{}{t.Seconds, t.Nanoseconds}, nil
		},
	})

	r.register(reflect.TypeOf(temporal.Duration{}), &Handler{
		Tag:   TagDuration,
		Arity: 4,
		Decode: func(f []interface{}) (interface{}, error) {
			months, err := asInt64(f[0])
			if err != nil {
				return nil, err
			}
			days, err := asInt64(f[1])
			if err != nil {
				return nil, err
			}
			sec, err := asInt64(f[2])
			if err != nil {
				return nil, err
			}
			ns, err := asInt64(f[3])
			if err != nil {
				return nil, err
			}
			return temporal.Duration{Months: months, Days: days, Seconds: sec, Nanoseconds: ns}, nil
		},
		Encode: func(v interface{}) ([]interface{}, error) {
			d := v.(temporal.Duration)
			return []interface{}{d.Months, d.Days, d.Seconds, d.Nanoseconds}, nil
		},
	})
}
