package notepack

// NoteView is a lazily decoded packed note. The fixed fields are
// parsed eagerly; the tag block is kept raw and only walked on
// demand. Every byte slice points into the packed input, so the view
// is only valid while that buffer is.
type NoteView struct {
	Version   byte
	ID        []byte
	Pubkey    []byte
	Sig       []byte
	CreatedAt uint64
	Kind      uint64
	Content   []byte

	tagCount uint64
	tagData  []byte
}

// View parses everything up to the tag block and returns a view over
// data. Tag payloads stay untouched until walked via Tags, so a
// malformed tag does not surface here.
func View(data []byte) (*NoteView, error) {
	var (
		p = NewParser(data)
		v = &NoteView{}
	)
	for {
		f, err := p.Next()
		if err != nil {
			return nil, err
		}
		switch f.Type {
		case FieldVersion:
			v.Version = byte(f.N)
		case FieldID:
			v.ID = f.Data
		case FieldPubkey:
			v.Pubkey = f.Data
		case FieldSig:
			v.Sig = f.Data
		case FieldCreatedAt:
			v.CreatedAt = f.N
		case FieldKind:
			v.Kind = f.N
		case FieldContent:
			v.Content = f.Data
		case FieldTagCount:
			v.tagCount = f.N
			v.tagData = p.rest()
			return v, nil
		}
	}
}

// TagCount returns the number of tags declared by the packed note.
func (v *NoteView) TagCount() uint64 {
	return v.tagCount
}

// Tags returns a fresh cursor positioned at the first tag. The view
// is not mutated, so the block can be walked any number of times.
func (v *NoteView) Tags() *Tags {
	return &Tags{data: v.tagData, remaining: v.tagCount}
}

// Note materializes the view into an owned note, copying every field
// out of the packed buffer.
func (v *NoteView) Note() (*Note, error) {
	note := &Note{
		ID:        append([]byte(nil), v.ID...),
		Pubkey:    append([]byte(nil), v.Pubkey...),
		Sig:       append([]byte(nil), v.Sig...),
		CreatedAt: v.CreatedAt,
		Kind:      v.Kind,
		Content:   string(v.Content),
	}

	// Cap preallocations by what the block could physically hold so a
	// hostile count cannot balloon memory.
	note.Tags = make([]Tag, 0, capHint(v.tagCount, len(v.tagData)))

	tags := v.Tags()
	for tags.Next() {
		tag := make(Tag, 0, capHint(tags.Remaining(), len(v.tagData)))
		for tags.NextElem() {
			e := tags.Elem()
			tag = append(tag, Elem{Binary: e.Binary, Data: append([]byte(nil), e.Data...)})
		}
		note.Tags = append(note.Tags, tag)
	}
	if err := tags.Err(); err != nil {
		return nil, err
	}

	return note, nil
}

// capHint bounds an attacker-controlled count: every tag and element
// takes at least one byte on the wire.
func capHint(n uint64, limit int) int {
	if n > uint64(limit) {
		return limit
	}
	return int(n)
}

// Tags is a lazy cursor over the tag block of a packed note, used in
// the bufio.Scanner style: Next advances to the next tag, NextElem to
// the next element of the current tag, and Err reports the first
// failure once either returns false.
//
//	tags := view.Tags()
//	for tags.Next() {
//		for tags.NextElem() {
//			e := tags.Elem()
//			...
//		}
//	}
//	if err := tags.Err(); err != nil {
//		...
//	}
type Tags struct {
	data      []byte
	remaining uint64 // tags not yet started
	elems     uint64 // elements left in the current tag
	cur       Elem
	err       error
}

// Next advances the cursor to the next tag. Elements of the current
// tag that were never read are skipped, so the cursor always lands on
// a tag boundary. It returns false when no tags remain or a malformed
// block was hit; check Err afterwards.
func (t *Tags) Next() bool {
	if t.err != nil {
		return false
	}
	for t.elems > 0 {
		if !t.skipElem() {
			return false
		}
	}
	if t.remaining == 0 {
		return false
	}

	n, consumed, err := readUvarint(t.data)
	if err != nil {
		t.err = err
		return false
	}
	t.data = t.data[consumed:]
	t.elems = n
	t.remaining--
	return true
}

// NextElem advances to the next element of the current tag. It
// returns false at the end of the tag or on error; check Err.
func (t *Tags) NextElem() bool {
	if t.err != nil || t.elems == 0 {
		return false
	}

	length, binary, consumed, err := readTaggedUvarint(t.data)
	if err != nil {
		t.err = err
		return false
	}
	t.data = t.data[consumed:]
	if uint64(len(t.data)) < length {
		t.err = ErrTruncated
		return false
	}
	payload := t.data[:length]
	t.data = t.data[length:]

	if !binary {
		if off := invalidUTF8(payload); off >= 0 {
			t.err = &UTF8Error{Offset: off}
			return false
		}
	}

	t.cur = Elem{Binary: binary, Data: payload}
	t.elems--
	return true
}

// Elem returns the element read by the last successful NextElem.
func (t *Tags) Elem() Elem {
	return t.cur
}

// Remaining returns the number of unread elements in the current tag.
func (t *Tags) Remaining() uint64 {
	return t.elems
}

// Err returns the first error encountered while walking the block.
func (t *Tags) Err() error {
	return t.err
}

// skipElem consumes one element without validating its payload, only
// that the declared length is actually present.
func (t *Tags) skipElem() bool {
	length, _, consumed, err := readTaggedUvarint(t.data)
	if err != nil {
		t.err = err
		return false
	}
	t.data = t.data[consumed:]
	if uint64(len(t.data)) < length {
		t.err = ErrTruncated
		return false
	}
	t.data = t.data[length:]
	t.elems--
	return true
}

// Unpack decodes a packed note into an owned Note.
func Unpack(data []byte) (*Note, error) {
	v, err := View(data)
	if err != nil {
		return nil, err
	}
	return v.Note()
}

// UnpackString decodes a notepack_ string into an owned Note.
func UnpackString(s string) (*Note, error) {
	b, err := DecodeString(s)
	if err != nil {
		return nil, err
	}
	return Unpack(b)
}
