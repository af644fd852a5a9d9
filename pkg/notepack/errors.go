package notepack

import (
	"errors"
	"fmt"
)

var (
	ErrTruncated          = errors.New("unexpected end of input")
	ErrVarintOverflow     = errors.New("varint overflows 64 bits")
	ErrVarintUnterminated = errors.New("varint is unterminated")
	ErrPrefix             = errors.New("string does not start with notepack_")
	ErrBase64             = errors.New("invalid base64 payload")
	ErrIDSize             = errors.New("invalid id: must be 32 bytes")
	ErrPubkeySize         = errors.New("invalid pubkey: must be 32 bytes")
	ErrSigSize            = errors.New("invalid sig: must be 64 bytes")
)

// UTF8Error reports invalid UTF-8 in a field that must hold text.
// Offset is the byte position of the first invalid sequence within
// that field's payload.
type UTF8Error struct {
	Offset int
}

func (e *UTF8Error) Error() string {
	return fmt.Sprintf("invalid utf-8 at byte %d", e.Offset)
}
