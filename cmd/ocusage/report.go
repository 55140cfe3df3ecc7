package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/wesm/ocusage/internal/config"
	"github.com/wesm/ocusage/internal/db"
	"github.com/wesm/ocusage/internal/report"
)

type reportConfig struct {
	opts report.Options
	cfg  config.Config
}

func parseReportFlags(args []string) (reportConfig, error) {
	var rc reportConfig

	// A leading bare word selects the period shortcut, as in
	// "ocusage today -json".
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		rc.opts.Command = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("ocusage", flag.ContinueOnError)
	by := fs.String("by", "",
		"Group rows by: "+strings.Join(report.Views(), ", "))
	days := fs.Int("days", 0,
		"Report window in days (default 7)")
	since := fs.String("since", "",
		"Window start: YYYY-MM-DD or relative like 30d")
	until := fs.String("until", "",
		"Window end: YYYY-MM-DD or relative like 1d")
	limit := fs.Int("limit", 0,
		"Maximum rows per table (0 = all)")
	compare := fs.Bool("compare", false,
		"Show change vs the previous period of equal length")
	jsonOut := fs.Bool("json", false,
		"Emit JSON instead of tables")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(),
			"Usage: ocusage [today|yesterday] [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return rc, err
	}

	// Flag parsing stops at the first bare word, so the period
	// shortcut is also accepted after flags.
	rest := fs.Args()
	if len(rest) > 0 && rc.opts.Command == "" {
		rc.opts.Command = rest[0]
		rest = rest[1:]
	}
	if len(rest) > 0 {
		return rc, fmt.Errorf("unexpected argument %q", rest[0])
	}

	switch rc.opts.Command {
	case "", "today", "yesterday":
	default:
		return rc, fmt.Errorf(
			"unknown command %q (expected today or yesterday)",
			rc.opts.Command,
		)
	}
	if *by != "" && !report.ValidView(*by) {
		return rc, fmt.Errorf(
			"unknown view %q (expected one of %s)",
			*by, strings.Join(report.Views(), ", "),
		)
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return rc, err
	}
	rc.cfg = cfg

	rc.opts.View = *by
	rc.opts.Days = *days
	rc.opts.Since = *since
	rc.opts.Until = *until
	rc.opts.Limit = *limit
	rc.opts.Compare = *compare
	rc.opts.JSON = *jsonOut
	rc.opts.NoColor = cfg.NoColor

	// Config-file defaults fill in when nothing on the command
	// line picked a window or a row cap.
	if rc.opts.Days == 0 && rc.opts.Since == "" &&
		rc.opts.Command == "" && cfg.DefaultDays > 0 {
		rc.opts.Days = cfg.DefaultDays
	}
	if rc.opts.Limit == 0 && cfg.DefaultLimit > 0 {
		rc.opts.Limit = cfg.DefaultLimit
	}

	return rc, nil
}

func runReport(args []string) {
	rc, err := parseReportFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	database, err := db.Open(rc.cfg.DBPath)
	if err != nil {
		if db.IsNotFound(err) {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		log.Fatalf("opening database: %v", err)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		rc.opts.NoColor = true
	}

	reporter := &report.Reporter{DB: database, Out: os.Stdout}
	if err := reporter.Run(context.Background(), rc.opts); err != nil {
		log.Fatalf("generating report: %v", err)
	}
}
