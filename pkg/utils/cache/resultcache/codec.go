package resultcache

import "github.com/fxamacker/cbor/v2"

// Codec turns computed results into opaque serialized bytes. The cache
// contract is not coupled to one format; anything with a fast binary
// round-trip of numeric arrays will do.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
}

// CBORCodec is the default codec.
type CBORCodec struct{}

func (CBORCodec) Marshal(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func (CBORCodec) Unmarshal(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}
