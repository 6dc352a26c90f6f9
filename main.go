package main

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/xmit-co/passnote/config"
	"golang.org/x/term"
)

var errUsage = errors.New("usage")

func usage(w io.Writer) {
	fmt.Fprint(w, `Usage:
passnote encode input.json output.pn
passnote decode input.pn output.json
passnote digest file...
passnote merge base other output
passnote sort input output
passnote search file phrase [all|names|holders|leaves|fields|values[,...]]
passnote tsv file leaf-path
passnote paste file leaf-path input.tsv output
passnote rename file node-path new-name output
passnote rename-field file leaf-path field new-name output
passnote delete file node-path output
passnote delete-field file leaf-path field output
passnote password [file leaf-path field output]
passnote preview file

Files starting with PASSNOTE are read as PassNote, anything else as JSON.
Outputs ending in .json are written as JSON, anything else as PassNote.
A .zst suffix adds zstd compression; - means stdin or stdout.
Invoked as json2pn or pn2json, the encode or decode command is implied.
`)
}

// aliasArgs implies the subcommand when the binary is installed as
// json2pn or pn2json. The banner goes to w, never to stdout, which may
// carry the output stream.
func aliasArgs(argv0 string, args []string, w io.Writer) []string {
	switch strings.TrimSuffix(filepath.Base(argv0), ".exe") {
	case "json2pn":
		fmt.Fprintln(w, "Json -> PassNote Converter")
		return append([]string{"encode"}, args...)
	case "pn2json":
		fmt.Fprintln(w, "PassNote -> Json Converter")
		return append([]string{"decode"}, args...)
	}
	return args
}

func main() {
	args := aliasArgs(os.Args[0], os.Args[1:], os.Stderr)

	if len(args) < 1 {
		usage(os.Stdout)
		os.Exit(1)
	}
	if args[0] == "-h" || args[0] == "--help" {
		usage(os.Stdout)
		os.Exit(0)
	}

	cfg, used, err := config.Load(config.Dir())
	if err != nil {
		log.Fatalf("🛑 Failed to load configuration: %v", err)
	}
	if used != "" {
		log.Printf("⚙️ Using %s", used)
	}

	interactive := term.IsTerminal(int(os.Stderr.Fd()))
	switch cfg.Color {
	case "always":
		color.NoColor = false
	case "never":
		color.NoColor = true
	default:
		color.NoColor = !interactive
	}

	c := &cli{
		cfg:         cfg,
		stdin:       os.Stdin,
		stdout:      os.Stdout,
		stderr:      os.Stderr,
		interactive: interactive,
	}
	if err := c.run(args); err != nil {
		if errors.Is(err, errUsage) {
			usage(os.Stdout)
			os.Exit(1)
		}
		log.Fatalf("🛑 %v", err)
	}
}
