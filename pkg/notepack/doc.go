// Package notepack implements a compact binary encoding for nostr
// notes.
//
// A packed note is laid out as:
//
//	version(1) | id(32) | pubkey(32) | sig(64) |
//	varint(created_at) | varint(kind) |
//	varint(len(content)) | content |
//	varint(num_tags) | tags...
//
// where each tag is varint(num_elems) followed by its elements, and
// each element is a tagged varint (length<<1 | is_bytes) followed by
// the payload. Integers use unsigned LEB128. Tag elements holding
// lowercase hex are stored as raw bytes at half size; everything else
// stays UTF-8 text.
//
// Pack and Unpack convert whole notes. NewParser streams individual
// fields without copying, for callers that need only a prefix of the
// record, and View exposes the fixed fields with the tag block left
// raw for lazy walking. PackString and UnpackString wrap the binary
// form in an unpadded base64 string carrying the "notepack_" prefix.
package notepack
