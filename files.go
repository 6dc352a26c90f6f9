package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/xmit-co/passnote/progress"
	"github.com/xmit-co/passnote/protocol"
)

func compressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

// isJSON reports whether an output path asks for JSON.
func isJSON(path string) bool {
	return strings.HasSuffix(strings.TrimSuffix(path, ".zst"), ".json")
}

func (c *cli) readFile(path string) ([]byte, error) {
	var r io.Reader = c.stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		r = f
		if st, err := f.Stat(); err == nil && c.interactive && st.Size() > c.cfg.ProgressThreshold {
			r = progress.NewReader(f, st.Size(), "Reading "+path, c.stderr)
		}
	}
	if compressed(path) {
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		defer zr.Close()
		r = zr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return b, nil
}

func (c *cli) writeFile(path string, data []byte) error {
	if compressed(path) {
		ok, level := zstd.EncoderLevelFromString(c.cfg.CompressionLevel)
		if !ok {
			return fmt.Errorf("unknown compression level %q", c.cfg.CompressionLevel)
		}
		z, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
		if err != nil {
			return fmt.Errorf("creating zstd writer: %w", err)
		}
		data = z.EncodeAll(data, nil)
		if err := z.Close(); err != nil {
			return fmt.Errorf("closing zstd writer: %w", err)
		}
	}
	if path == "-" {
		_, err := c.stdout.Write(data)
		return err
	}
	// Databases hold secrets.
	return os.WriteFile(path, data, 0600)
}

func (c *cli) decoder() protocol.Decoder {
	return protocol.Decoder{MaxDepth: c.cfg.MaxDepth}
}

func (c *cli) encoder() protocol.Encoder {
	return protocol.Encoder{MaxDepth: c.cfg.MaxDepth}
}

func parseJSON(b []byte) (*protocol.Node, error) {
	var n protocol.Node
	d := json.NewDecoder(bytes.NewReader(b))
	if err := d.Decode(&n); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	if d.More() {
		return nil, fmt.Errorf("parsing JSON: trailing data after tree")
	}
	return &n, nil
}

func (c *cli) marshalJSON(n *protocol.Node) ([]byte, error) {
	if c.cfg.Indent == 0 {
		return json.Marshal(n)
	}
	b, err := json.MarshalIndent(n, "", strings.Repeat(" ", c.cfg.Indent))
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// loadTree reads a PassNote or JSON file, deciding by content.
func (c *cli) loadTree(path string) (*protocol.Node, error) {
	b, err := c.readFile(path)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(b, []byte(protocol.Magic)) {
		n, err := c.decoder().Decode(b)
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
		return n, nil
	}
	n, err := parseJSON(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return n, nil
}

// saveTree writes JSON or PassNote depending on the output name.
func (c *cli) saveTree(path string, n *protocol.Node) error {
	var b []byte
	var err error
	if isJSON(path) {
		b, err = c.marshalJSON(n)
	} else {
		b, err = c.encoder().Encode(n)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := c.writeFile(path, b); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Printf("✅ Wrote %s (%d bytes)", path, len(b))
	return nil
}
