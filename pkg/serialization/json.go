package serialization

import (
	"encoding/json"
	"io"
)

// JSON wraps json.Decoder and json.Encoder to satisfy the package interfaces.
type JSON struct {
	dec *json.Decoder
	enc *json.Encoder
}

// Decode decodes a JSON value from the underlying reader into v.
func (j *JSON) Decode(v any) error {
	return j.dec.Decode(v)
}

// Encode serializes v as JSON to the underlying writer.
func (j *JSON) Encode(v any) error {
	return j.enc.Encode(v)
}

// JSONDecoder returns a Decoder that reads JSON from r.
func JSONDecoder(r io.Reader) Decoder {
	return &JSON{dec: json.NewDecoder(r)}
}

// JSONEncoder returns an Encoder that writes JSON to w.
func JSONEncoder(w io.Writer) Encoder {
	return &JSON{enc: json.NewEncoder(w)}
}
