package serialization

import (
	"encoding/gob"
	"io"
)

// Gob wraps gob.Decoder and gob.Encoder to satisfy the package interfaces.
type Gob struct {
	dec *gob.Decoder
	enc *gob.Encoder
}

// Decode decodes a value from the underlying gob.Decoder into v.
func (g *Gob) Decode(v any) error {
	return g.dec.Decode(v)
}

// Encode serializes v using gob encoding.
func (g *Gob) Encode(v any) error {
	return g.enc.Encode(v)
}

// GobDecoder returns a Decoder that reads gob-encoded data from r.
func GobDecoder(r io.Reader) Decoder {
	return &Gob{dec: gob.NewDecoder(r)}
}

// GobEncoder returns an Encoder that writes gob-encoded data to w.
func GobEncoder(w io.Writer) Encoder {
	return &Gob{enc: gob.NewEncoder(w)}
}
