package notepack

import (
	"encoding/hex"
	"fmt"
)

// NoteJSON is the nostr wire shape of a note: fixed-size fields as
// hex strings, tags as plain string lists.
type NoteJSON struct {
	ID        string     `json:"id"`
	Pubkey    string     `json:"pubkey"`
	CreatedAt uint64     `json:"created_at"`
	Kind      uint64     `json:"kind"`
	Tags      [][]string `json:"tags"`
	Content   string     `json:"content"`
	Sig       string     `json:"sig"`
}

// Note converts the JSON shape into a binary note. The hex fields
// accept either case. Tag strings become text elements; turning
// lowercase hex elements into raw bytes is the encoder's job.
func (j *NoteJSON) Note() (*Note, error) {
	id, err := hex.DecodeString(j.ID)
	if err != nil {
		return nil, fmt.Errorf("error decoding id: %w", err)
	}
	pk, err := hex.DecodeString(j.Pubkey)
	if err != nil {
		return nil, fmt.Errorf("error decoding pubkey: %w", err)
	}
	sig, err := hex.DecodeString(j.Sig)
	if err != nil {
		return nil, fmt.Errorf("error decoding sig: %w", err)
	}

	note := &Note{
		ID:        id,
		Pubkey:    pk,
		Sig:       sig,
		CreatedAt: j.CreatedAt,
		Kind:      j.Kind,
		Content:   j.Content,
		Tags:      make([]Tag, 0, len(j.Tags)),
	}
	for _, tag := range j.Tags {
		t := make(Tag, 0, len(tag))
		for _, elem := range tag {
			t = append(t, Str(elem))
		}
		note.Tags = append(note.Tags, t)
	}

	if err := note.Validate(); err != nil {
		return nil, err
	}
	return note, nil
}

// JSON converts the note into its JSON shape. Raw byte elements are
// rendered as lowercase hex; this is the direction where the
// bytes-vs-text distinction is lost.
func (n *Note) JSON() *NoteJSON {
	j := &NoteJSON{
		ID:        hex.EncodeToString(n.ID),
		Pubkey:    hex.EncodeToString(n.Pubkey),
		CreatedAt: n.CreatedAt,
		Kind:      n.Kind,
		Content:   n.Content,
		Sig:       hex.EncodeToString(n.Sig),
		Tags:      make([][]string, 0, len(n.Tags)),
	}
	for _, tag := range n.Tags {
		t := make([]string, 0, len(tag))
		for _, elem := range tag {
			if elem.Binary {
				t = append(t, hex.EncodeToString(elem.Data))
			} else {
				t = append(t, string(elem.Data))
			}
		}
		j.Tags = append(j.Tags, t)
	}
	return j
}
