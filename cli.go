package main

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/xmit-co/passnote/config"
	"github.com/xmit-co/passnote/database"
	"github.com/xmit-co/passnote/preview"
	"github.com/xmit-co/passnote/protocol"
)

type cli struct {
	cfg         config.Config
	stdin       io.Reader
	stdout      io.Writer
	stderr      io.Writer
	interactive bool
	now         func() time.Time
}

func (c *cli) run(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	need := map[string]int{
		"encode":  2,
		"decode":  2,
		"digest":  1,
		"merge":   3,
		"sort":    2,
		"search":  2,
		"tsv":     2,
		"paste":   4,
		"preview": 1,

		"rename":       4,
		"rename-field": 5,
		"delete":       3,
		"delete-field": 4,
		"password":     0,
	}
	n, ok := need[cmd]
	if !ok {
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
	if len(args) < n {
		return errUsage
	}
	switch cmd {
	case "encode":
		return c.encode(args[0], args[1])
	case "decode":
		return c.decode(args[0], args[1])
	case "digest":
		return c.digest(args)
	case "merge":
		return c.merge(args[0], args[1], args[2])
	case "sort":
		return c.sort(args[0], args[1])
	case "search":
		scope := ""
		if len(args) > 2 {
			scope = args[2]
		}
		return c.search(args[0], args[1], scope)
	case "tsv":
		return c.tsv(args[0], args[1])
	case "paste":
		return c.paste(args[0], args[1], args[2], args[3])
	case "rename":
		return c.edit(args[0], args[1], args[3], func(tree *protocol.Node, at []int) (*protocol.Node, error) {
			return database.Rename(tree, at, args[2])
		})
	case "rename-field":
		return c.edit(args[0], args[1], args[4], func(tree *protocol.Node, at []int) (*protocol.Node, error) {
			return database.RenameField(tree, at, args[2], args[3])
		})
	case "delete":
		return c.edit(args[0], args[1], args[2], database.Delete)
	case "delete-field":
		return c.edit(args[0], args[1], args[3], func(tree *protocol.Node, at []int) (*protocol.Node, error) {
			return database.DeleteField(tree, at, args[2])
		})
	case "password":
		return c.password(args)
	default:
		return preview.Serve(args[0], c.cfg.Listen, func() (*protocol.Node, error) {
			return c.loadTree(args[0])
		}, c.cfg.Indent)
	}
}

func (c *cli) encode(in, out string) error {
	log.Printf("📦 Encoding %s…", in)
	b, err := c.readFile(in)
	if err != nil {
		return err
	}
	tree, err := parseJSON(b)
	if err != nil {
		return fmt.Errorf("%s: %w", in, err)
	}
	pn, err := c.encoder().Encode(tree)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", in, err)
	}
	if err := c.writeFile(out, pn); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	if c.cfg.Verify && out != "-" {
		if err := c.verify(out, tree); err != nil {
			return err
		}
	}
	log.Printf("✅ Wrote %s (%d bytes)", out, len(pn))
	printTotals(c.stderr, database.Count(tree))
	return nil
}

// verify reads back a written PassNote file and checks that it holds
// the input tree at second resolution.
func (c *cli) verify(path string, want *protocol.Node) error {
	b, err := c.readFile(path)
	if err != nil {
		return err
	}
	got, err := c.decoder().Decode(b)
	if err != nil {
		return fmt.Errorf("verifying %s: %w", path, err)
	}
	wantHash, err := protocol.Digest(protocol.Truncate(want))
	if err != nil {
		return err
	}
	gotHash, err := protocol.Digest(got)
	if err != nil {
		return err
	}
	if gotHash != wantHash {
		return fmt.Errorf("verifying %s: digest %s, want %s", path, gotHash, wantHash)
	}
	log.Printf("🔍 Verified %s (%s)", path, gotHash)
	return nil
}

func (c *cli) decode(in, out string) error {
	log.Printf("📂 Decoding %s…", in)
	b, err := c.readFile(in)
	if err != nil {
		return err
	}
	tree, err := c.decoder().Decode(b)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", in, err)
	}
	js, err := c.marshalJSON(tree)
	if err != nil {
		return err
	}
	if err := c.writeFile(out, js); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	log.Printf("✅ Wrote %s (%d bytes)", out, len(js))
	printTotals(c.stderr, database.Count(tree))
	return nil
}

// digest prints one line per file. JSON inputs are hashed at second
// resolution so a JSON file and its encoding agree.
func (c *cli) digest(paths []string) error {
	for _, p := range paths {
		tree, err := c.loadTree(p)
		if err != nil {
			return err
		}
		h, err := protocol.Digest(protocol.Truncate(tree))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%s  %s\n", h, p)
	}
	return nil
}

func (c *cli) merge(base, other, out string) error {
	a, err := c.loadTree(base)
	if err != nil {
		return err
	}
	b, err := c.loadTree(other)
	if err != nil {
		return err
	}
	merged, stats := database.Merge(a, b)
	printStats(c.stderr, stats)
	return c.saveTree(out, merged)
}

func (c *cli) sort(in, out string) error {
	tree, err := c.loadTree(in)
	if err != nil {
		return err
	}
	return c.saveTree(out, database.Sort(tree))
}

func (c *cli) search(path, phrase, scope string) error {
	opts, err := parseScope(scope)
	if err != nil {
		return err
	}
	tree, err := c.loadTree(path)
	if err != nil {
		return err
	}
	results := database.Search(tree, opts, phrase)
	bold := color.New(color.Bold)
	for _, r := range results {
		if r.IsField {
			bold.Fprint(c.stdout, r.Name)
			fmt.Fprintf(c.stdout, "\t%s\n", r.Value)
		} else {
			bold.Fprintln(c.stdout, r.Name)
		}
	}
	log.Printf("🔎 %d matches", len(results))
	return nil
}

// parseScope adds whitespace-insensitive matching unless "exact" is
// listed among the scopes.
func parseScope(scope string) (database.Options, error) {
	ws := database.IgnoreWhitespace
	var parts []string
	for _, part := range strings.Split(scope, ",") {
		if part == "exact" {
			ws = 0
			continue
		}
		parts = append(parts, part)
	}
	opts, err := database.ParseOptions(strings.Join(parts, ","))
	if err != nil {
		return 0, err
	}
	return opts | ws, nil
}

func (c *cli) tsv(path, leafPath string) error {
	tree, err := c.loadTree(path)
	if err != nil {
		return err
	}
	n, ok := database.Find(tree, leafPath)
	if !ok || !n.Leaf {
		return fmt.Errorf("no leaf %q in %s", leafPath, path)
	}
	_, err = io.WriteString(c.stdout, database.CopyTSV(n))
	return err
}

func (c *cli) paste(path, leafPath, input, out string) error {
	tree, err := c.loadTree(path)
	if err != nil {
		return err
	}
	at, ok := database.Locate(tree, leafPath)
	if !ok {
		return fmt.Errorf("no leaf %q in %s", leafPath, path)
	}
	leaf, _ := database.Resolve(tree, at)
	if !leaf.Leaf {
		return fmt.Errorf("%q in %s is a holder", leafPath, path)
	}
	text, err := c.readFile(input)
	if err != nil {
		return err
	}
	edited, stats := database.PasteTSV(leaf, string(text), c.clock()().UnixMilli())
	printStats(c.stderr, stats)
	updated, _ := database.Replace(tree, at, edited)
	return c.saveTree(out, updated)
}

// edit applies one change to the node named by nodePath and writes the
// whole tree to out.
func (c *cli) edit(path, nodePath, out string, change func(*protocol.Node, []int) (*protocol.Node, error)) error {
	tree, err := c.loadTree(path)
	if err != nil {
		return err
	}
	at, ok := database.Locate(tree, nodePath)
	if !ok {
		return fmt.Errorf("no node %q in %s", nodePath, path)
	}
	edited, err := change(tree, at)
	if err != nil {
		return fmt.Errorf("%s: %w", nodePath, err)
	}
	return c.saveTree(out, edited)
}

// password prints a new password, or with file, leaf path, field and
// output stores it in that field.
func (c *cli) password(args []string) error {
	if len(args) != 0 && len(args) < 4 {
		return errUsage
	}
	pw, err := database.GeneratePassword()
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}
	if len(args) == 0 {
		_, err := fmt.Fprintln(c.stdout, pw)
		return err
	}
	return c.edit(args[0], args[1], args[3], func(tree *protocol.Node, at []int) (*protocol.Node, error) {
		leaf, _ := database.Resolve(tree, at)
		if !leaf.Leaf {
			return nil, database.ErrNotLeaf
		}
		set, stats := database.SetField(leaf, args[2], pw, c.clock()().UnixMilli())
		printStats(c.stderr, stats)
		updated, _ := database.Replace(tree, at, set)
		return updated, nil
	})
}

func (c *cli) clock() func() time.Time {
	if c.now != nil {
		return c.now
	}
	return time.Now
}
