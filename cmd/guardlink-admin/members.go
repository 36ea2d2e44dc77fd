package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/target/guardlink/internal/data"
	"github.com/target/guardlink/internal/domain/model"
)

type memberOptions struct {
	ID   string
	JSON bool
}

func runMember(cmdCtx *commandContext, args []string) error {
	opts, err := parseMemberFlags(args)
	if err != nil {
		return err
	}
	return withMemberRepo(cmdCtx, func(ctx context.Context, repo *data.MemberRepo) error {
		m, getErr := repo.GetMember(ctx, opts.ID)
		if getErr != nil {
			return fmt.Errorf("get member: %w", getErr)
		}
		if opts.JSON {
			return printJSON(cmdCtx.Out, m)
		}
		return printMember(cmdCtx.Out, m)
	})
}

func parseMemberFlags(args []string) (memberOptions, error) {
	fs := flag.NewFlagSet("member", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts memberOptions
	fs.StringVar(&opts.ID, "id", "", "Community member id")
	fs.BoolVar(&opts.JSON, "json", false, "Print as JSON")

	if err := fs.Parse(args); err != nil {
		return memberOptions{}, err
	}
	if opts.ID == "" {
		return memberOptions{}, errors.New("--id is required")
	}
	return opts, nil
}

type registerMemberOptions struct {
	Request model.UpsertMemberRequest
}

func runRegisterMember(cmdCtx *commandContext, args []string) error {
	opts, err := parseRegisterMemberFlags(args)
	if err != nil {
		return err
	}
	return withMemberRepo(cmdCtx, func(ctx context.Context, repo *data.MemberRepo) error {
		m, upsertErr := repo.UpsertMember(ctx, opts.Request)
		if upsertErr != nil {
			return fmt.Errorf("register member: %w", upsertErr)
		}
		cmdCtx.Logger.Info("member registered", "member_id", m.ID)
		return printMember(cmdCtx.Out, m)
	})
}

func parseRegisterMemberFlags(args []string) (registerMemberOptions, error) {
	fs := flag.NewFlagSet("register-member", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts registerMemberOptions
	fs.StringVar(&opts.Request.ID, "id", "", "Community member id")
	fs.StringVar(&opts.Request.DisplayName, "name", "", "Display name")
	fs.StringVar(&opts.Request.IdentifyNumber, "identify-number", "", "Identify number shown to the member")

	if err := fs.Parse(args); err != nil {
		return registerMemberOptions{}, err
	}
	if err := opts.Request.Validate(); err != nil {
		return registerMemberOptions{}, err
	}
	return opts, nil
}

func withMemberRepo(cmdCtx *commandContext, f func(context.Context, *data.MemberRepo) error) error {
	db, _, err := connectInfraWithOptions(&connectInfraOptions{
		Logger: cmdCtx.Logger,
		Config: &cmdCtx.Config,
		WantDB: true,
	})
	if err != nil {
		return err
	}
	defer func(db *sql.DB) {
		if cerr := closeInfra(db, nil); cerr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", cerr)
		}
	}(db)

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultLookupTimeout)
	defer cancel()
	return f(ctx, data.NewMemberRepo(db, data.RealTimeProvider{}))
}

func printMember(w io.Writer, m *model.Member) error {
	binding := "unbound"
	if m.ExternalAccountID != nil {
		binding = fmt.Sprintf("account %d", *m.ExternalAccountID)
	}
	roles := m.Roles.String()
	if roles == "" {
		roles = "-"
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", m.ID},
		{"Name", m.DisplayName},
		{"Identify number", m.IdentifyNumber},
		{"Binding", binding},
		{"Tier", fmt.Sprint(m.Tier)},
		{"Roles", roles},
		{"Sync error", fmt.Sprint(m.SyncError)},
		{"Updated", m.UpdatedAt.Format(time.RFC3339)},
	}
	for _, row := range rows {
		if err := writef(tw, "%s:\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
