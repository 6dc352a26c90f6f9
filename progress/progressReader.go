package progress

import (
	"fmt"
	"io"
	"time"
)

// Reader reports how much of an input of known size has been read, at
// most once a second.
type Reader struct {
	reader     io.Reader
	out        io.Writer
	label      string
	total      int64
	read       int64
	lastUpdate time.Time
	now        func() time.Time
}

func NewReader(r io.Reader, total int64, label string, out io.Writer) *Reader {
	return &Reader{
		reader: r,
		out:    out,
		label:  label,
		total:  total,
		now:    time.Now,
	}
}

func (p *Reader) Read(b []byte) (n int, err error) {
	n, err = p.reader.Read(b[:min(len(b), 64<<10)])
	p.read += int64(n)
	if t := p.now(); t.Sub(p.lastUpdate) > time.Second {
		p.print()
		p.lastUpdate = t
	}
	if err == io.EOF {
		p.print()
		fmt.Fprintln(p.out)
	}
	return
}

func (p *Reader) print() {
	pct := int64(100)
	if p.total > 0 {
		pct = min(p.read*100/p.total, 100)
	}
	fmt.Fprintf(p.out, "\r%s: %d/%d (%2d%%)", p.label, p.read, p.total, pct)
}
