package archive

import "errors"

var (
	ErrLocked   = errors.New("a lockfile already exists")
	ErrReadOnly = errors.New("operation not allowed in read only mode")
	ErrBadID    = errors.New("invalid id: must be 64 hex characters")
	ErrNoNote   = errors.New("no note stored for the given id")
	ErrExpired  = errors.New("invalid note: note has expired")
	ErrChecksum = errors.New("invalid record: checksum does not match")
	ErrTooLarge = errors.New("invalid note: size is too large")
)
