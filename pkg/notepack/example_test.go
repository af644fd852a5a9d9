package notepack_test

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/notepack/notepack/pkg/notepack"
)

// exampleString is a packed note carrying two tags and the content "hello".
const exampleString = "notepack_AQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEREREREREREREREREREREREREREREREREREREREREREiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIigLyUtAYABWhlbGxvAgMCZUGqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqi53c3M6Ly9yZWxheS5leGFtcGxlLmNvbQICcEG7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7uw"

func exampleNote() *notepack.Note {
	return &notepack.Note{
		ID:        bytes.Repeat([]byte{0x00}, notepack.IDSize),
		Pubkey:    bytes.Repeat([]byte{0x11}, notepack.PubkeySize),
		Sig:       bytes.Repeat([]byte{0x22}, notepack.SigSize),
		CreatedAt: 1720000000,
		Content:   "hello",
		Tags: []notepack.Tag{
			{notepack.Str("e"), notepack.Str(strings.Repeat("aa", 32)), notepack.Str("wss://relay.example.com")},
			{notepack.Str("p"), notepack.Str(strings.Repeat("bb", 32))},
		},
	}
}

// ExamplePack packs a note into its binary form.
func ExamplePack() {
	packed, err := notepack.Pack(exampleNote())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("packed %d bytes\n", len(packed))
	fmt.Printf("version: %d\n", packed[0])

	// Output:
	// packed 238 bytes
	// version: 1
}

// ExamplePackString produces the base64 transport form.
func ExamplePackString() {
	s, err := notepack.PackString(exampleNote())
	if err != nil {
		log.Fatal(err)
	}

	fmt.Println(s)

	// Output:
	// notepack_AQAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAEREREREREREREREREREREREREREREREREREREREREREiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIiIigLyUtAYABWhlbGxvAgMCZUGqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqqi53c3M6Ly9yZWxheS5leGFtcGxlLmNvbQICcEG7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7u7uw
}

// ExampleUnpackString decodes the transport form back into a note.
func ExampleUnpackString() {
	note, err := notepack.UnpackString(exampleString)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("id: %x\n", note.ID[:4])
	fmt.Println("kind:", note.Kind)
	fmt.Println("content:", note.Content)
	fmt.Println("tags:", len(note.Tags))

	// Output:
	// id: 00000000
	// kind: 0
	// content: hello
	// tags: 2
}

// ExampleParser streams fields one at a time and stops as soon as the
// interesting ones have been seen. The tag block is never touched.
func ExampleParser() {
	packed, err := notepack.DecodeString(exampleString)
	if err != nil {
		log.Fatal(err)
	}

	p := notepack.NewParser(packed)
	for {
		f, err := p.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatal(err)
		}

		switch f.Type {
		case notepack.FieldCreatedAt:
			fmt.Println("created_at:", f.N)
		case notepack.FieldContent:
			fmt.Printf("content: %s\n", f.Data)
		case notepack.FieldTagCount:
			fmt.Println("tags:", f.N)
			return
		}
	}

	// Output:
	// created_at: 1720000000
	// content: hello
	// tags: 2
}

// ExampleTags walks the tag block of a lazily parsed note.
func ExampleTags() {
	packed, err := notepack.DecodeString(exampleString)
	if err != nil {
		log.Fatal(err)
	}

	v, err := notepack.View(packed)
	if err != nil {
		log.Fatal(err)
	}

	tags := v.Tags()
	for tags.Next() {
		fmt.Println("tag:")
		for tags.NextElem() {
			e := tags.Elem()
			if e.Binary {
				fmt.Printf("  %d raw bytes\n", len(e.Data))
			} else {
				fmt.Printf("  %q\n", e.Data)
			}
		}
	}
	if err := tags.Err(); err != nil {
		log.Fatal(err)
	}

	// Output:
	// tag:
	//   "e"
	//   32 raw bytes
	//   "wss://relay.example.com"
	// tag:
	//   "p"
	//   32 raw bytes
}

// ExampleNote_JSON renders binary tag elements as lowercase hex.
func ExampleNote_JSON() {
	note, err := notepack.UnpackString(exampleString)
	if err != nil {
		log.Fatal(err)
	}

	j := note.JSON()
	fmt.Println("id:", j.ID)
	fmt.Println("relay:", j.Tags[0][2])
	fmt.Println("p:", j.Tags[1][1])

	// Output:
	// id: 0000000000000000000000000000000000000000000000000000000000000000
	// relay: wss://relay.example.com
	// p: bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb
}
