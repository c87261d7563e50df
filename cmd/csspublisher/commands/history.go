package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"git.home.luguber.info/inful/csspublisher/internal/foundation/errors"
	"git.home.luguber.info/inful/csspublisher/internal/history"
)

// HistoryCmd implements the 'history' command.
type HistoryCmd struct {
	Limit int    `short:"n" help:"Number of runs to list" default:"20"`
	RunID string `name:"run" help:"Show the recorded events of one run"`
	JSON  bool   `help:"Print JSON instead of a table"`
}

func (h *HistoryCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	if cfg.History.Path == "" {
		return errors.ConfigError("run history is not enabled (set history.path)").Build()
	}
	store, err := history.NewSQLiteStore(cfg.History.Path)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	ctx := context.Background()
	if h.RunID != "" {
		evts, err := store.GetByRunID(ctx, h.RunID)
		if err != nil {
			return err
		}
		return printEvents(os.Stdout, evts, h.JSON)
	}
	runs, err := store.RecentRuns(ctx, h.Limit)
	if err != nil {
		return err
	}
	return printRuns(os.Stdout, runs, h.JSON)
}

func printRuns(w io.Writer, runs []history.RunSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tSTATUS\tOUTCOME\tCOMMIT\tDURATION\tREASON")
	for _, r := range runs {
		outcome := r.Outcome
		if outcome == "" {
			outcome = "-"
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			r.RunID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Status,
			outcome,
			shortCommit(r.Commit),
			r.Duration.Truncate(time.Millisecond),
			r.Reason)
	}
	return tw.Flush()
}

func printEvents(w io.Writer, evts []history.Event, asJSON bool) error {
	if asJSON {
		type row struct {
			Type      string          `json:"type"`
			Timestamp time.Time       `json:"timestamp"`
			Payload   json.RawMessage `json:"payload,omitempty"`
		}
		rows := make([]row, 0, len(evts))
		for _, e := range evts {
			rows = append(rows, row{Type: e.Type(), Timestamp: e.Timestamp(), Payload: e.Payload()})
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rows)
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tEVENT\tPAYLOAD")
	for _, e := range evts {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Timestamp().Local().Format(time.DateTime), e.Type(), e.Payload())
	}
	return tw.Flush()
}
