package notepack

import (
	"encoding/base64"
	"encoding/hex"
)

// Classifier decides how a text element is stored on the wire. It is
// called once per text element at pack time; returning a binary
// element stores the payload as raw bytes, anything else keeps it as
// UTF-8 text.
type Classifier func(s string) Elem

// HexClassifier stores strings of lowercase hex as raw bytes at half
// size and everything else as text. Uppercase and odd-length strings
// stay text, otherwise re-encoding the unpacked note would not
// reproduce the input.
func HexClassifier(s string) Elem {
	if s == "" || len(s)%2 != 0 || !isLowerHex(s) {
		return Str(s)
	}
	b, _ := hex.DecodeString(s)
	return Bin(b)
}

// TextClassifier stores every element as text, disabling the hex
// packing optimisation.
func TextClassifier(s string) Elem {
	return Str(s)
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= '0' && c <= '9' || c >= 'a' && c <= 'f' {
			continue
		}
		return false
	}
	return true
}

// Encoder packs notes into their binary form.
type Encoder struct {
	classify Classifier
}

// Option is a function on the Encoder. These are used to configure
// particular options.
type Option func(*Encoder) error

// WithClassifier swaps the heuristic that decides whether a text tag
// element is stored as raw bytes or as text.
func WithClassifier(c Classifier) Option {
	return func(e *Encoder) error {
		e.classify = c
		return nil
	}
}

// NewEncoder returns an encoder configured with the given options.
// Without options it packs lowercase hex tag elements as raw bytes.
func NewEncoder(opts ...Option) (*Encoder, error) {
	e := &Encoder{classify: HexClassifier}
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Pack encodes the note into its binary form. The output starts with
// the version byte, then id, pubkey and sig as raw bytes, then the
// varint fields, content and tags. Same note, same classifier, same
// bytes.
func (e *Encoder) Pack(note *Note) ([]byte, error) {
	if err := note.Validate(); err != nil {
		return nil, err
	}

	// Fixed fields plus varint headroom; tags grow as needed.
	buf := make([]byte, 0, 160+len(note.Content))

	buf = append(buf, Version)
	buf = append(buf, note.ID...)
	buf = append(buf, note.Pubkey...)
	buf = append(buf, note.Sig...)
	buf = appendUvarint(buf, note.CreatedAt)
	buf = appendUvarint(buf, note.Kind)
	buf = appendUvarint(buf, uint64(len(note.Content)))
	buf = append(buf, note.Content...)

	buf = appendUvarint(buf, uint64(len(note.Tags)))
	for _, tag := range note.Tags {
		buf = appendUvarint(buf, uint64(len(tag)))
		for _, elem := range tag {
			buf = e.appendElem(buf, elem)
		}
	}

	return buf, nil
}

// PackString encodes the note and wraps the result in the notepack_
// string form.
func (e *Encoder) PackString(note *Note) (string, error) {
	b, err := e.Pack(note)
	if err != nil {
		return "", err
	}
	return EncodeString(b), nil
}

func (e *Encoder) appendElem(buf []byte, elem Elem) []byte {
	// Explicit binary elements pass through untouched; only text runs
	// through the classifier.
	if !elem.Binary {
		elem = e.classify(string(elem.Data))
	}
	buf = appendTaggedUvarint(buf, len(elem.Data), elem.Binary)
	return append(buf, elem.Data...)
}

// EncodeString wraps an already packed note in the notepack_ string
// form: the prefix followed by unpadded standard base64.
func EncodeString(b []byte) string {
	return Prefix + base64.RawStdEncoding.EncodeToString(b)
}

// defaultEncoder backs the package level Pack helpers.
var defaultEncoder = &Encoder{classify: HexClassifier}

// Pack encodes the note with the default encoder.
func Pack(note *Note) ([]byte, error) {
	return defaultEncoder.Pack(note)
}

// PackString encodes the note to the notepack_ string form with the
// default encoder.
func PackString(note *Note) (string, error) {
	return defaultEncoder.PackString(note)
}
