package preview

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/xmit-co/passnote/database"
	"github.com/xmit-co/passnote/protocol"
)

// Loader returns the current tree. It is called on every request so
// edits to the file show up on reload.
type Loader func() (*protocol.Node, error)

type handler struct {
	load   Loader
	indent string
}

func NewHandler(load Loader, indent int) http.Handler {
	return &handler{load: load, indent: strings.Repeat(" ", indent)}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Add("Server", "passnote")
	w.Header().Add("X-Frame-Options", "SAMEORIGIN")
	w.Header().Add("X-Content-Type-Options", "nosniff")
	w.Header().Add("Referrer-Policy", "no-referrer")
	w.Header().Add("Cache-Control", "no-store")
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tree, err := h.load()
	if err != nil {
		internalError(w, err)
		return
	}

	switch strings.TrimSuffix(r.URL.Path, "/") {
	case "", "/tree":
		h.writeJSON(w, tree)
	case "/digest":
		// Whole seconds, like the file's PassNote encoding.
		d, err := protocol.Digest(protocol.Truncate(tree))
		if err != nil {
			internalError(w, err)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, d)
	case "/search":
		q := r.URL.Query()
		opts, err := database.ParseOptions(q.Get("in"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if q.Get("ws") != "" {
			opts |= database.IgnoreWhitespace
		}
		results := database.Search(tree, opts, q.Get("q"))
		if results == nil {
			results = []database.Result{}
		}
		h.writeJSON(w, results)
	case "/tsv":
		n, ok := database.Find(tree, r.URL.Query().Get("path"))
		if !ok || !n.Leaf {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/tab-separated-values; charset=utf-8")
		fmt.Fprint(w, database.CopyTSV(n))
	default:
		http.NotFound(w, r)
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	e := json.NewEncoder(w)
	e.SetIndent("", h.indent)
	if err := e.Encode(v); err != nil {
		log.Printf("⚠️ writing response: %v", err)
	}
}

// Serve exposes every stored value without authentication, so it warns
// when listen is reachable from other hosts.
func Serve(path, listen string, load Loader, indent int) error {
	if listen == "" {
		listen = "localhost:4000"
	}
	serveAddr := listen
	if serveAddr[0] == ':' {
		serveAddr = "localhost" + serveAddr
	}
	if !Loopback(listen) {
		log.Printf("⚠️ %s", color.YellowString("%s is reachable from other hosts; anyone who can connect can read every password", listen))
	}
	log.Printf("Preview of %s: http://%s", path, serveAddr)
	return http.ListenAndServe(listen, NewHandler(load, indent))
}

// Loopback reports whether a listen address only accepts local
// connections. An empty host binds every interface.
func Loopback(listen string) bool {
	host, _, err := net.SplitHostPort(listen)
	if err != nil || host == "" {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func internalError(w http.ResponseWriter, err error) {
	u := uuid.New()
	log.Printf("%s: %v", u.String(), err)
	http.Error(w, fmt.Sprintf("Internal error (%v)", u), http.StatusInternalServerError)
}
