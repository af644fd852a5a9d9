package notepack

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// FieldType identifies which part of a packed note a Parser yielded.
type FieldType int

const (
	FieldVersion FieldType = iota
	FieldID
	FieldPubkey
	FieldSig
	FieldCreatedAt
	FieldKind
	FieldContent
	FieldTagCount
	FieldElemCount
	FieldElemText
	FieldElemBytes
)

func (t FieldType) String() string {
	switch t {
	case FieldVersion:
		return "version"
	case FieldID:
		return "id"
	case FieldPubkey:
		return "pubkey"
	case FieldSig:
		return "sig"
	case FieldCreatedAt:
		return "created_at"
	case FieldKind:
		return "kind"
	case FieldContent:
		return "content"
	case FieldTagCount:
		return "num_tags"
	case FieldElemCount:
		return "num_elems"
	case FieldElemText:
		return "str"
	case FieldElemBytes:
		return "bytes"
	}
	return "unknown"
}

// Field is one parsed field of a packed note. N carries the value for
// integer fields (version, created_at, kind and the two counts), Data
// carries the payload for everything else. Data is a subslice of the
// parser's input, valid for as long as the input is.
type Field struct {
	Type FieldType
	N    uint64
	Data []byte
}

type parserState int

const (
	stateStart parserState = iota
	stateAfterVersion
	stateAfterID
	stateAfterPubkey
	stateAfterSig
	stateAfterCreatedAt
	stateAfterKind
	stateAfterContent
	stateTags
	stateDone
)

// Parser streams through a packed note one field at a time without
// copying payloads. A caller that only needs the id can stop after
// two fields; the rest of the input is never touched. Parsing stops
// after the last declared tag element, so trailing bytes are ignored.
type Parser struct {
	data  []byte
	state parserState
	tags  uint64 // tags not yet started
	elems uint64 // elements left in the current tag
	err   error
}

// NewParser returns a parser positioned at the start of data.
func NewParser(data []byte) *Parser {
	return &Parser{data: data}
}

// Next returns the next field of the note. It returns io.EOF once the
// note is exhausted. Any other error is terminal: the parser does not
// resynchronize and every further call returns the same error.
func (p *Parser) Next() (Field, error) {
	if p.err != nil {
		return Field{}, p.err
	}

	switch p.state {
	case stateStart:
		b, err := p.take(1)
		if err != nil {
			return p.fail(err)
		}
		p.state = stateAfterVersion
		return Field{Type: FieldVersion, N: uint64(b[0])}, nil

	case stateAfterVersion:
		b, err := p.take(IDSize)
		if err != nil {
			return p.fail(err)
		}
		p.state = stateAfterID
		return Field{Type: FieldID, Data: b}, nil

	case stateAfterID:
		b, err := p.take(PubkeySize)
		if err != nil {
			return p.fail(err)
		}
		p.state = stateAfterPubkey
		return Field{Type: FieldPubkey, Data: b}, nil

	case stateAfterPubkey:
		b, err := p.take(SigSize)
		if err != nil {
			return p.fail(err)
		}
		p.state = stateAfterSig
		return Field{Type: FieldSig, Data: b}, nil

	case stateAfterSig:
		n, err := p.varint()
		if err != nil {
			return p.fail(err)
		}
		p.state = stateAfterCreatedAt
		return Field{Type: FieldCreatedAt, N: n}, nil

	case stateAfterCreatedAt:
		n, err := p.varint()
		if err != nil {
			return p.fail(err)
		}
		p.state = stateAfterKind
		return Field{Type: FieldKind, N: n}, nil

	case stateAfterKind:
		n, err := p.varint()
		if err != nil {
			return p.fail(err)
		}
		b, err := p.take(n)
		if err != nil {
			return p.fail(err)
		}
		if off := invalidUTF8(b); off >= 0 {
			return p.fail(&UTF8Error{Offset: off})
		}
		p.state = stateAfterContent
		return Field{Type: FieldContent, Data: b}, nil

	case stateAfterContent:
		n, err := p.varint()
		if err != nil {
			return p.fail(err)
		}
		p.tags = n
		if n > 0 {
			p.state = stateTags
		} else {
			p.state = stateDone
		}
		return Field{Type: FieldTagCount, N: n}, nil

	case stateTags:
		if p.elems == 0 {
			if p.tags == 0 {
				p.state = stateDone
				return Field{}, io.EOF
			}
			n, err := p.varint()
			if err != nil {
				return p.fail(err)
			}
			p.elems = n
			p.tags--
			return Field{Type: FieldElemCount, N: n}, nil
		}

		length, binary, err := p.tagged()
		if err != nil {
			return p.fail(err)
		}
		b, err := p.take(length)
		if err != nil {
			return p.fail(err)
		}
		p.elems--
		if binary {
			return Field{Type: FieldElemBytes, Data: b}, nil
		}
		if off := invalidUTF8(b); off >= 0 {
			return p.fail(&UTF8Error{Offset: off})
		}
		return Field{Type: FieldElemText, Data: b}, nil
	}

	return Field{}, io.EOF
}

// take consumes exactly n bytes, failing with ErrTruncated before
// consuming anything when fewer remain.
func (p *Parser) take(n uint64) ([]byte, error) {
	if uint64(len(p.data)) < n {
		return nil, ErrTruncated
	}
	b := p.data[:n]
	p.data = p.data[n:]
	return b, nil
}

func (p *Parser) varint() (uint64, error) {
	v, n, err := readUvarint(p.data)
	if err != nil {
		return 0, err
	}
	p.data = p.data[n:]
	return v, nil
}

func (p *Parser) tagged() (uint64, bool, error) {
	length, binary, n, err := readTaggedUvarint(p.data)
	if err != nil {
		return 0, false, err
	}
	p.data = p.data[n:]
	return length, binary, nil
}

func (p *Parser) fail(err error) (Field, error) {
	p.err = err
	return Field{}, err
}

// rest returns the unconsumed remainder of the input.
func (p *Parser) rest() []byte {
	return p.data
}

// invalidUTF8 returns the byte offset of the first invalid UTF-8
// sequence in b, or -1 if b is valid. DecodeRune reports RuneError
// with size 1 only for invalid input; a literal U+FFFD decodes with
// size 3.
func invalidUTF8(b []byte) int {
	for i := 0; i < len(b); {
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return -1
}

// DecodeString unwraps the notepack_ string form and returns the
// packed binary payload.
func DecodeString(s string) ([]byte, error) {
	if !strings.HasPrefix(s, Prefix) {
		return nil, ErrPrefix
	}
	b, err := base64.RawStdEncoding.DecodeString(s[len(Prefix):])
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBase64, err)
	}
	return b, nil
}
