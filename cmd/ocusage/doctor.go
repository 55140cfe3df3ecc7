package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/wesm/ocusage/internal/config"
	"github.com/wesm/ocusage/internal/db"
	"github.com/wesm/ocusage/internal/doctor"
)

type doctorConfig struct {
	sample int
	json   bool
	cfg    config.Config
}

func parseDoctorFlags(args []string) (doctorConfig, error) {
	var dc doctorConfig

	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.IntVar(&dc.sample, "sample", doctor.DefaultSample,
		"Messages to sample for field coverage")
	fs.BoolVar(&dc.json, "json", false,
		"Emit JSON instead of text")
	config.RegisterFlags(fs)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ocusage doctor [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return dc, err
	}
	if len(fs.Args()) > 0 {
		return dc, fmt.Errorf("unexpected argument %q", fs.Args()[0])
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return dc, err
	}
	dc.cfg = cfg
	return dc, nil
}

func runDoctor(args []string) {
	dc, err := parseDoctorFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	database, err := db.Open(dc.cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	res, err := doctor.Check(context.Background(), database, dc.sample)
	if err != nil {
		log.Fatalf("checking database: %v", err)
	}

	if dc.json {
		out, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			log.Fatalf("encoding report: %v", err)
		}
		fmt.Println(string(out))
	} else {
		writeDoctorReport(os.Stdout, res)
	}

	if !res.Healthy() {
		os.Exit(1)
	}
}

func writeDoctorReport(w io.Writer, res *doctor.Result) {
	fmt.Fprintf(w, "Database: %s\n", res.Path)
	fmt.Fprintf(w, "Tables:   %s\n", strings.Join(res.Tables, ", "))
	fmt.Fprintf(w, "Messages: %d\n", res.MessageCount)
	fmt.Fprintf(w, "Sessions: %d\n", res.SessionCount)

	if res.Sampled > 0 {
		fmt.Fprintf(w,
			"\nSampled %d messages (%d assistant, %d invalid JSON):\n",
			res.Sampled, res.Assistant, res.InvalidJSON)
		for _, c := range res.Coverage {
			fmt.Fprintf(w, "  %-14s %d\n", c.Field, c.Present)
		}
		if res.MissingTotal > 0 {
			fmt.Fprintf(w,
				"\nAssistant turns missing tokens.total: %d (excluded from reports)\n",
				res.MissingTotal)
		}
		if len(res.Models) > 0 {
			fmt.Fprintf(w, "\nModels:    %s\n", strings.Join(res.Models, ", "))
		}
		if len(res.Providers) > 0 {
			fmt.Fprintf(w, "Providers: %s\n", strings.Join(res.Providers, ", "))
		}
		if len(res.Agents) > 0 {
			fmt.Fprintf(w, "Agents:    %s\n", strings.Join(res.Agents, ", "))
		}
		if res.NewestMs > 0 {
			fmt.Fprintf(w, "Range:     %s to %s\n",
				formatMs(res.OldestMs), formatMs(res.NewestMs))
		}
	}

	fmt.Fprintln(w)
	if res.Healthy() {
		fmt.Fprintln(w, "No problems found.")
		return
	}
	fmt.Fprintln(w, "Problems:")
	for _, p := range res.Problems {
		fmt.Fprintln(w, "  -", p)
	}
}

func formatMs(ms int64) string {
	return time.UnixMilli(ms).Format("2006-01-02 15:04")
}
