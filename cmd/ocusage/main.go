package main

import (
	"fmt"
	"os"
	_ "time/tzdata"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "doctor":
			runDoctor(os.Args[2:])
			return
		case "update":
			runUpdate(os.Args[2:])
			return
		case "version", "--version", "-v":
			fmt.Printf("ocusage %s (commit %s, built %s)\n",
				version, commit, buildDate)
			return
		case "help", "--help", "-h":
			printUsage()
			return
		}
	}

	runReport(os.Args[1:])
}

func printUsage() {
	fmt.Printf(`ocusage %s - OpenCode usage reports

Reads the OpenCode SQLite database and reports token usage and cost
grouped by day, model, agent, provider, or session. The database is
opened read-only and never modified.

Usage:
  ocusage [flags]             Usage for the last 7 days (default)
  ocusage today [flags]       Usage since local midnight
  ocusage yesterday [flags]   Usage since yesterday's midnight
  ocusage doctor [flags]      Inspect the database for problems
  ocusage update [flags]      Check for a newer release
  ocusage version             Show version information
  ocusage help                Show this help

Report flags:
  -by string          Group rows by: model, agent, provider, session, day (default day)
  -days int           Report window in days (default 7)
  -since string       Window start: YYYY-MM-DD or relative like 30d
  -until string       Window end: YYYY-MM-DD or relative like 1d
  -limit int          Maximum rows per table (0 = all)
  -compare            Show change vs the previous period of equal length
  -json               Emit JSON instead of tables
  -db string          Path to the OpenCode database
  -no-color           Disable ANSI colors

Doctor flags:
  -sample int         Messages to sample for field coverage (default 500)
  -json               Emit JSON instead of text

Update flags:
  -force              Force check (ignore cache)

Environment variables:
  OPENCODE_DB         Path to the OpenCode database
  NO_COLOR            Disable ANSI colors when set
  OCUSAGE_CONFIG_DIR  Directory holding config.json

The database is looked up at ~/.local/share/opencode/opencode.db by
default; the config file, OPENCODE_DB, and -db override it in that
order.
`, version)
}
