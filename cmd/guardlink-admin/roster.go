package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	redisadapter "github.com/target/guardlink/internal/adapters/redis"
	"github.com/target/guardlink/internal/bootstrap"
	"github.com/target/guardlink/internal/domain/model"
)

type rosterRunOptions struct {
	Timeout time.Duration
	JSON    bool
}

func runRosterRun(cmdCtx *commandContext, args []string) error {
	opts, err := parseRosterRunFlags(args)
	if err != nil {
		return err
	}

	db, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantDB:    true,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeInfra(db, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close infrastructure failed", "error", cerr)
		}
	}()

	services, err := bootstrap.NewServices(&bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("build services: %w", err)
	}
	defer func() { _ = services.Observability.Close() }()
	if services.RosterSync == nil {
		return errors.New("roster sync is not configured; set COMMUNITY_BOT_TOKEN and the provider settings")
	}

	ctx, stop := signal.NotifyContext(cmdCtx.Ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	report, err := services.RosterSync.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("roster cycle: %w", err)
	}
	if opts.JSON {
		return printJSON(cmdCtx.Out, report)
	}
	return printCycleReport(cmdCtx.Out, report)
}

func parseRosterRunFlags(args []string) (rosterRunOptions, error) {
	fs := flag.NewFlagSet("roster-run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := rosterRunOptions{Timeout: defaultRosterTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultRosterTimeout, "Maximum duration for the cycle")
	fs.BoolVar(&opts.JSON, "json", false, "Print the cycle report as JSON")

	if err := fs.Parse(args); err != nil {
		return rosterRunOptions{}, err
	}
	if opts.Timeout <= 0 {
		return rosterRunOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

type snapshotOptions struct {
	Entries bool
	Limit   int
	Account int64
	JSON    bool
}

func runSnapshot(cmdCtx *commandContext, args []string) error {
	opts, err := parseSnapshotFlags(args)
	if err != nil {
		return err
	}

	_, redisClient, err := connectInfraWithOptions(&connectInfraOptions{
		Logger:    cmdCtx.Logger,
		Config:    &cmdCtx.Config,
		WantRedis: true,
	})
	if err != nil {
		return err
	}
	if redisClient == nil {
		return errors.New("snapshot inspection requires redis")
	}
	defer func() {
		if cerr := closeInfra(nil, redisClient); cerr != nil {
			cmdCtx.Logger.Warn("close redis failed", "error", cerr)
		}
	}()

	cache := redisadapter.NewSnapshotCache(redisClient, redisadapter.SnapshotCacheOptions{
		Prefix:     cmdCtx.Config.Redis.KeyPrefix,
		HistoryTTL: cmdCtx.Config.Redis.SnapshotHistoryTTL,
	})

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultLookupTimeout)
	defer cancel()

	if opts.Account > 0 {
		entry, found, lookupErr := cache.LookupEntry(ctx, opts.Account)
		if lookupErr != nil {
			return fmt.Errorf("lookup entry: %w", lookupErr)
		}
		if !found {
			return writef(cmdCtx.Out, "account %d is not in the latest snapshot\n", opts.Account)
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, entry)
		}
		return writef(cmdCtx.Out, "account %d (%s): tier %d\n", entry.AccountID, entry.DisplayName, entry.Tier)
	}

	snap, err := cache.LatestSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	if snap == nil {
		return writef(cmdCtx.Out, "no roster snapshot stored under %q\n", cmdCtx.Config.Redis.KeyPrefix)
	}
	if opts.JSON {
		if opts.Entries {
			return printJSON(cmdCtx.Out, snap)
		}
		return printJSON(cmdCtx.Out, snap.Summary())
	}
	return printSnapshot(cmdCtx.Out, snap, opts)
}

func parseSnapshotFlags(args []string) (snapshotOptions, error) {
	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := snapshotOptions{Limit: 20}
	fs.BoolVar(&opts.Entries, "entries", false, "Include roster entries")
	fs.IntVar(&opts.Limit, "limit", 20, "Maximum entries to print (0 prints all)")
	fs.Int64Var(&opts.Account, "account", 0, "Look up a single provider account id")
	fs.BoolVar(&opts.JSON, "json", false, "Print as JSON")

	if err := fs.Parse(args); err != nil {
		return snapshotOptions{}, err
	}
	if opts.Limit < 0 {
		return snapshotOptions{}, errors.New("--limit cannot be negative")
	}
	if opts.Account < 0 {
		return snapshotOptions{}, errors.New("--account must be positive")
	}
	return opts, nil
}

func printCycleReport(w io.Writer, r model.RosterCycleReport) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value any
	}{
		{"Cycle", r.Snapshot.CycleID},
		{"Fetched", r.Snapshot.FetchedAt.Format(time.RFC3339)},
		{"Collected", fmt.Sprintf("%d/%d (%.1f%%)", r.Snapshot.Collected, r.Snapshot.TotalCount, r.Snapshot.SuccessRatio*100)},
		{"Lost pages", formatPages(r.Snapshot.LostPages)},
		{"Examined", r.Reconcile.Examined},
		{"Changed", r.Reconcile.Changed},
		{"Granted", r.Reconcile.Granted},
		{"Revoked", r.Reconcile.Revoked},
		{"Failures", r.Reconcile.Failures},
		{"Elapsed", r.Elapsed.Round(time.Millisecond)},
	}
	for _, row := range rows {
		if err := writef(tw, "%s:\t%v\n", row.label, row.value); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printSnapshot(w io.Writer, snap *model.RosterSnapshot, opts snapshotOptions) error {
	s := snap.Summary()
	if err := writef(w, "Cycle %s fetched %s\n", s.CycleID, s.FetchedAt.Format(time.RFC3339)); err != nil {
		return err
	}
	if err := writef(w, "Collected %d of %d over %d pages (%.1f%%), lost pages: %s\n",
		s.Collected, s.TotalCount, s.TotalPages, s.SuccessRatio*100, formatPages(s.LostPages)); err != nil {
		return err
	}
	if !opts.Entries {
		return nil
	}

	entries := snap.Entries
	if opts.Limit > 0 && len(entries) > opts.Limit {
		entries = entries[:opts.Limit]
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "\nACCOUNT\tTIER\tNAME\n"); err != nil {
		return err
	}
	for _, e := range entries {
		if err := writef(tw, "%d\t%d\t%s\n", e.AccountID, e.Tier, e.DisplayName); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if len(entries) < len(snap.Entries) {
		return writef(w, "... %d more (use --limit 0 to print all)\n", len(snap.Entries)-len(entries))
	}
	return nil
}

func formatPages(pages []int) string {
	if len(pages) == 0 {
		return "none"
	}
	return fmt.Sprint(pages)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
