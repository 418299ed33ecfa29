// Package codec defines the per-type serialization contract used by typedis.
//
// A Codec[V] turns values of the caller's type V into the byte strings the
// store holds natively, and back. Codecs are pure and stateless (except where
// construction pre-compiles options, e.g. CBOR modes); the zero value of most
// codecs is ready to use.
package codec

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encode(V) ([]byte, error)
	Decode([]byte) (V, error)
}
