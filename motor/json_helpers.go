package motor

import (
	"encoding/json"
	"io"
)

// HARDecoder is the token stream the loader walks a HAR document with.
type HARDecoder interface {
	// Token returns the next JSON token in the input stream
	Token() (json.Token, error)

	// Decode decodes the next JSON value into v
	Decode(v interface{}) error

	// More reports whether there is another element in the current array or object
	More() bool

	// InputOffset returns the input stream byte offset of the current decoder position
	InputOffset() int64
}

type jsonHelper struct{}

var helper = &jsonHelper{}

// StdlibDecoder wraps encoding/json.Decoder to implement HARDecoder.
type StdlibDecoder struct {
	decoder *json.Decoder
}

func (s *StdlibDecoder) Token() (json.Token, error) {
	return s.decoder.Token()
}

func (s *StdlibDecoder) Decode(v interface{}) error {
	return s.decoder.Decode(v)
}

func (s *StdlibDecoder) More() bool {
	return s.decoder.More()
}

func (s *StdlibDecoder) InputOffset() int64 {
	return s.decoder.InputOffset()
}

func (h *jsonHelper) skipValue(decoder HARDecoder) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}

	switch token {
	case json.Delim('{'), json.Delim('['):
		return h.skipContainer(decoder)
	}

	return nil
}

// skipContainer consumes the rest of an object or array whose opening delimiter was read.
// object keys are plain tokens, so objects and arrays skip the same way.
func (h *jsonHelper) skipContainer(decoder HARDecoder) error {
	for decoder.More() {
		if err := h.skipValue(decoder); err != nil {
			return err
		}
	}
	_, err := decoder.Token()
	return err
}

// expectDelim reads the next token and checks it is the given delimiter.
func (h *jsonHelper) expectDelim(decoder HARDecoder, delim json.Delim) (bool, error) {
	token, err := decoder.Token()
	if err != nil {
		return false, err
	}
	return token == delim, nil
}

func newHARDecoder(r io.Reader) HARDecoder {
	return &StdlibDecoder{decoder: json.NewDecoder(r)}
}
