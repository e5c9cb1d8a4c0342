package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"

	"github.com/dustin/go-humanize"

	friendlyerrors "reliefctl/internal/errors"
	"reliefctl/internal/journal"
)

func handleHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	cf := addCommonFlags(fs)
	limit := fs.Int("limit", 20, "number of entries to show (0 = all)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	c, _, err := cf.load()
	if err != nil {
		return err
	}
	if !c.Journal.Enabled {
		return errors.New("journal is disabled (journal.enabled: false)")
	}
	db, err := journal.Open(c)
	if err != nil {
		return friendlyerrors.DatabaseError(err)
	}
	defer func() { _ = db.Close() }()
	entries, err := db.List(*limit)
	if err != nil {
		return friendlyerrors.DatabaseError(err)
	}
	if *cf.jsonOut {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if entries == nil {
			entries = []journal.Entry{}
		}
		return enc.Encode(entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "No activity recorded.")
		return nil
	}
	fmt.Fprintf(stdout, "%-16s  %-8s  %-9s  %-20s  %s\n", "WHEN", "KIND", "OUTCOME", "SUBJECT", "DETAIL")
	for _, e := range entries {
		fmt.Fprintf(stdout, "%-16s  %-8s  %-9s  %-20s  %s\n",
			humanize.Time(e.Time()), e.Kind, e.Outcome, clip(e.Subject, 20), clip(e.Detail, 60))
	}
	return nil
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
