package guppi

import (
	"bytes"
	"encoding/json"

	"github.com/elliotchance/orderedmap/v2"
)

// Header is the ordered, key-unique field mapping of one GUPPI header.
// Setting an existing key replaces its value in place.
type Header struct {
	fields *orderedmap.OrderedMap[string, Value]
}

func NewHeader() *Header {
	return &Header{fields: orderedmap.NewOrderedMap[string, Value]()}
}

func (h *Header) init() {
	if h.fields == nil {
		h.fields = orderedmap.NewOrderedMap[string, Value]()
	}
}

func (h *Header) Set(key string, v Value) {
	h.init()
	h.fields.Set(key, v)
}

func (h *Header) SetInt(key string, v int64) {
	h.Set(key, NewInteger(v))
}

func (h *Header) SetReal(key string, v float64) {
	h.Set(key, NewReal(v))
}

func (h *Header) SetString(key string, v string) {
	h.Set(key, NewString(v))
}

func (h *Header) Get(key string) (Value, bool) {
	if h == nil || h.fields == nil {
		return Value{}, false
	}
	return h.fields.Get(key)
}

func (h *Header) Delete(key string) bool {
	if h == nil || h.fields == nil {
		return false
	}
	return h.fields.Delete(key)
}

func (h *Header) Len() int {
	if h == nil || h.fields == nil {
		return 0
	}
	return h.fields.Len()
}

// Keys returns the keys in wire order.
func (h *Header) Keys() []string {
	keys := make([]string, 0, h.Len())
	h.Each(func(key string, _ Value) {
		keys = append(keys, key)
	})
	return keys
}

// Each calls fn for every field in wire order.
func (h *Header) Each(fn func(key string, v Value)) {
	if h == nil || h.fields == nil {
		return
	}
	for el := h.fields.Front(); el != nil; el = el.Next() {
		fn(el.Key, el.Value)
	}
}

// Equal reports whether both headers hold the same keys with the same
// value text. Field order is not compared.
func (h *Header) Equal(o *Header) bool {
	if h.Len() != o.Len() {
		return false
	}
	equal := true
	h.Each(func(key string, v Value) {
		ov, ok := o.Get(key)
		if !ok || !v.Equal(ov) {
			equal = false
		}
	})
	return equal
}

// MarshalJSON encodes the header as a JSON object in wire order.
func (h *Header) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	var err error
	first := true
	h.Each(func(key string, v Value) {
		if err != nil {
			return
		}
		if !first {
			buf.WriteByte(',')
		}
		first = false
		var k, val []byte
		if k, err = json.Marshal(key); err != nil {
			return
		}
		if val, err = v.MarshalJSON(); err != nil {
			return
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
	})
	if err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
