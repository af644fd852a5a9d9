package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"strings"

	"github.com/tidwall/redcon"

	"github.com/notepack/notepack/pkg/notepack"
)

// decodeArg accepts a note in any of its transport forms: the printable
// notepack_ string, a NIP-01 JSON object, or raw packed bytes.
func decodeArg(arg []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(arg, []byte(notepack.Prefix)):
		return notepack.DecodeString(string(arg))
	case bytes.HasPrefix(arg, []byte("{")):
		var j notepack.NoteJSON
		if err := json.Unmarshal(arg, &j); err != nil {
			return nil, err
		}
		note, err := j.Note()
		if err != nil {
			return nil, err
		}
		return notepack.Pack(note)
	default:
		return arg, nil
	}
}

func (app *App) ping(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("PONG")
}

func (app *App) quit(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteString("OK")
	conn.Close()
}

// put stores a note, supplied in any transport form, and replies with
// its hex id.
func (app *App) put(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}

	packed, err := decodeArg(cmd.Args[1])
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	if err := app.archive.PutPacked(packed); err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	// The id doubles as the key for later lookups.
	v, err := notepack.View(packed)
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}
	conn.WriteBulkString(hex.EncodeToString(v.ID))
}

// get replies with the stored note in its printable notepack_ form.
func (app *App) get(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}

	packed, err := app.archive.Get(string(cmd.Args[1]))
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	conn.WriteBulkString(notepack.EncodeString(packed))
}

func (app *App) del(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}

	if err := app.archive.Delete(string(cmd.Args[1])); err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	conn.WriteNull()
}

// pack converts a JSON note to its printable notepack_ form without
// touching the archive.
func (app *App) pack(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}

	var j notepack.NoteJSON
	if err := json.Unmarshal(cmd.Args[1], &j); err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	note, err := j.Note()
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	s, err := notepack.PackString(note)
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	conn.WriteBulkString(s)
}

// unpack converts a note to JSON. The argument is either a notepack_
// string to decode directly, or the hex id of a stored note.
func (app *App) unpack(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) != 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}

	var (
		arg    = string(cmd.Args[1])
		packed []byte
		err    error
	)
	if strings.HasPrefix(arg, notepack.Prefix) {
		packed, err = notepack.DecodeString(arg)
	} else {
		packed, err = app.archive.Get(arg)
	}
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	note, err := notepack.Unpack(packed)
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	out, err := json.Marshal(note.JSON())
	if err != nil {
		conn.WriteError("ERR " + err.Error())
		return
	}

	conn.WriteBulk(out)
}

// keys lists the hex ids of all stored notes. A pattern argument is
// accepted for redis-cli compatibility but ignored.
func (app *App) keys(conn redcon.Conn, cmd redcon.Command) {
	if len(cmd.Args) > 2 {
		conn.WriteError("ERR wrong number of arguments for '" + string(cmd.Args[0]) + "' command")
		return
	}

	ids := app.archive.List()
	conn.WriteArray(len(ids))
	for _, id := range ids {
		conn.WriteBulkString(id)
	}
}

func (app *App) length(conn redcon.Conn, cmd redcon.Command) {
	conn.WriteInt(app.archive.Len())
}
