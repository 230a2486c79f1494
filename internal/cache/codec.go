package cache

import (
	"encoding/json"

	"github.com/vmihailenco/msgpack/v5"
)

// Codec encodes and decodes values V to []byte for storage in a Provider.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}

type JSONCodec[V any] struct{}

func (JSONCodec[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSONCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// MsgpackCodec is the default payload codec; entries are smaller than JSON
// and the shape on the wire never reaches clients directly.
type MsgpackCodec[V any] struct{}

func (MsgpackCodec[V]) Encode(v V) ([]byte, error) { return msgpack.Marshal(v) }
func (MsgpackCodec[V]) Decode(b []byte) (V, error) {
	var v V
	err := msgpack.Unmarshal(b, &v)
	return v, err
}
