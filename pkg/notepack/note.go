package notepack

const (
	// Version is the format revision written as the first byte of
	// every packed note. Decoders report it and move on; nothing
	// interprets it yet.
	Version = 1

	// Prefix starts every string-encoded packed note.
	Prefix = "notepack_"

	IDSize     = 32
	PubkeySize = 32
	SigSize    = 64
)

// Note is a fully materialized nostr note. Fixed-size fields hold raw
// bytes, not hex; use NoteJSON for the wire JSON shape.
type Note struct {
	ID        []byte
	Pubkey    []byte
	Sig       []byte
	CreatedAt uint64
	Kind      uint64
	Content   string
	Tags      []Tag
}

// Tag is one tag of a note: an ordered list of elements.
type Tag []Elem

// Elem is a single tag element. Binary marks a raw bytes payload;
// otherwise Data holds UTF-8 text.
type Elem struct {
	Binary bool
	Data   []byte
}

// Str returns a text element.
func Str(s string) Elem {
	return Elem{Data: []byte(s)}
}

// Bin returns a raw bytes element.
func Bin(b []byte) Elem {
	return Elem{Binary: true, Data: b}
}

// Validate checks the fixed-size fields of the note.
func (n *Note) Validate() error {
	if len(n.ID) != IDSize {
		return ErrIDSize
	}
	if len(n.Pubkey) != PubkeySize {
		return ErrPubkeySize
	}
	if len(n.Sig) != SigSize {
		return ErrSigSize
	}
	return nil
}
