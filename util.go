package main

import (
	"io"

	"github.com/fatih/color"
	"github.com/xmit-co/passnote/database"
)

func printTotals(w io.Writer, t database.Totals) {
	faint := color.New(color.Faint)
	faint.Fprintf(w, "📊 %d holders, %d leaves, %d fields\n", t.Holders, t.Leaves, t.Fields)
}

func printStats(w io.Writer, s database.Stats) {
	if !s.Changed() {
		color.New(color.FgYellow).Fprintln(w, "⚠️ Nothing changed")
		return
	}
	green := color.New(color.FgGreen)
	for _, line := range []struct {
		n    int
		what string
	}{
		{s.HoldersAdded, "holders added"},
		{s.LeavesAdded, "leaves added"},
		{s.FieldsAdded, "fields added"},
		{s.FieldsUpdated, "fields updated"},
	} {
		if line.n > 0 {
			green.Fprintf(w, "✏️ %d %s\n", line.n, line.what)
		}
	}
}
