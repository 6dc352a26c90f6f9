package database

import (
	"strings"

	"github.com/xmit-co/passnote/protocol"
)

// SessionField is never exported to TSV.
const SessionField = "Session"

// CopyTSV renders a leaf's fields as "name\tvalue\n" lines.
func CopyTSV(leaf *protocol.Node) string {
	var b strings.Builder
	for _, f := range leaf.Fields {
		if strings.EqualFold(f.Name, SessionField) {
			continue
		}
		b.WriteString(f.Name)
		b.WriteByte('\t')
		b.WriteString(f.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

// PasteTSV applies "name\tvalue" lines to a copy of leaf. Existing
// fields (matched case-insensitively) are rewritten and stamped with now
// (milliseconds) even when the value is unchanged; only a value that
// differs ignoring case counts as an update. Other names are appended.
// Lines without a tab or without a value are skipped.
func PasteTSV(leaf *protocol.Node, input string, now int64) (*protocol.Node, Stats) {
	var stats Stats
	out := leaf.Clone()
	if !out.Leaf {
		return out, stats
	}
	for _, line := range strings.Split(input, "\n") {
		name, value, ok := strings.Cut(strings.TrimRight(line, "\r"), "\t")
		if !ok {
			continue
		}
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(strings.TrimLeft(value, "\t"))
		if name == "" || value == "" {
			continue
		}
		setField(out, name, value, now, &stats)
	}
	return out, stats
}
