package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/notepack/notepack/pkg/notepack"
	"github.com/zerodha/logf"
)

var (
	// Version of the build. This is injected at build-time.
	buildString = "unknown"
)

func main() {
	f := flag.NewFlagSet("notepack", flag.ContinueOnError)
	f.Usage = func() {
		fmt.Println("Converts notes between JSON and packed form, one line at a time.")
		fmt.Println("Lines starting with notepack_ are unpacked to JSON, everything else is packed.")
		fmt.Println(f.FlagUsages())
		os.Exit(0)
	}

	var (
		inspect = f.Bool("inspect", false, "Dump each field of the packed note instead of converting.")
		debug   = f.Bool("debug", false, "Enable verbose logging.")
		version = f.Bool("version", false, "Show build version and exit.")
	)
	if err := f.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *version {
		fmt.Println(buildString)
		os.Exit(0)
	}

	opts := logf.Opts{EnableCaller: true}
	if *debug {
		opts.Level = logf.DebugLevel
	}
	lo := logf.New(opts)

	sc := bufio.NewScanner(os.Stdin)
	// Contact lists routinely blow past the default 64K token limit.
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	failed := 0
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		res, err := processLine(line, *inspect)
		if err != nil {
			lo.Error("error processing line", "error", err)
			failed++
			continue
		}
		fmt.Fprintln(out, res)
	}
	if err := sc.Err(); err != nil {
		lo.Fatal("error reading stdin", "error", err)
	}
	if failed > 0 {
		out.Flush()
		os.Exit(1)
	}
}

// processLine converts a single input line. The direction is picked from
// the line itself: packed strings carry the notepack_ prefix, anything
// else is treated as a JSON note.
func processLine(line string, inspect bool) (string, error) {
	if inspect {
		return inspectLine(line)
	}
	if strings.HasPrefix(line, notepack.Prefix) {
		return unpackLine(line)
	}
	return packLine(line)
}

// packLine converts a JSON note to its notepack_ string form.
func packLine(line string) (string, error) {
	var j notepack.NoteJSON
	if err := json.Unmarshal([]byte(line), &j); err != nil {
		return "", fmt.Errorf("error decoding json: %w", err)
	}
	note, err := j.Note()
	if err != nil {
		return "", err
	}
	return notepack.PackString(note)
}

// unpackLine converts a notepack_ string back to its JSON form.
func unpackLine(line string) (string, error) {
	note, err := notepack.UnpackString(line)
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(note.JSON())
	if err != nil {
		return "", fmt.Errorf("error encoding json: %w", err)
	}
	return string(out), nil
}

// inspectLine renders every field of a packed note on its own line.
// JSON input is packed first so the dump always shows the wire layout.
func inspectLine(line string) (string, error) {
	if !strings.HasPrefix(line, notepack.Prefix) {
		packed, err := packLine(line)
		if err != nil {
			return "", err
		}
		line = packed
	}

	packed, err := notepack.DecodeString(line)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	p := notepack.NewParser(packed)
	for {
		fd, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch fd.Type {
		case notepack.FieldVersion, notepack.FieldCreatedAt, notepack.FieldKind,
			notepack.FieldTagCount, notepack.FieldElemCount:
			fmt.Fprintf(&b, "%s: %d\n", fd.Type, fd.N)
		case notepack.FieldContent, notepack.FieldElemText:
			fmt.Fprintf(&b, "%s: %q\n", fd.Type, fd.Data)
		default:
			fmt.Fprintf(&b, "%s: %x\n", fd.Type, fd.Data)
		}
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
