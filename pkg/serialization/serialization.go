// Package serialization provides the pluggable encoders used for payload
// size estimation and snapshot files.
package serialization

import (
	"bytes"
	"io"
)

const (

	// JSONType represents the serialization type for JSON format.
	JSONType = "json"

	// GobType represents the serialization type for Gob format.
	GobType = "gob"
)

// Decoder is the interface for deserialization.
type Decoder interface {
	Decode(v any) error
}

// Encoder is the interface for serialization.
type Encoder interface {
	Encode(v any) error
}

// Marshal encodes v into a byte slice using the given encoder factory.
func Marshal(enc func(io.Writer) Encoder, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := enc(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes data into v using the given decoder factory.
func Unmarshal(dec func(io.Reader) Decoder, data []byte, v any) error {
	return dec(bytes.NewReader(data)).Decode(v)
}
