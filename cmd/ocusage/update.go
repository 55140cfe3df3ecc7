package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/wesm/ocusage/internal/update"
)

func runUpdate(args []string) {
	fs := flag.NewFlagSet("update", flag.ExitOnError)
	force := fs.Bool("force", false,
		"Force check (ignore cache)")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: ocusage update [flags]")
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		log.Fatalf("parsing flags: %v", err)
	}

	cacheDir, err := os.UserCacheDir()
	if err != nil {
		log.Fatalf("resolving cache dir: %v", err)
	}
	cacheDir = filepath.Join(cacheDir, "ocusage")

	info, err := update.CheckForUpdate(version, *force, cacheDir)
	if err != nil {
		log.Fatalf("checking for updates: %v", err)
	}

	if info == nil {
		fmt.Printf("ocusage %s is up to date.\n", version)
		return
	}

	if info.IsDevBuild {
		fmt.Printf("Running dev build (%s). Latest release: %s\n",
			info.CurrentVersion, info.LatestVersion)
	} else {
		fmt.Printf("Update available: %s -> %s\n",
			info.CurrentVersion, info.LatestVersion)
	}
	if info.ReleaseURL != "" {
		fmt.Printf("Download: %s\n", info.ReleaseURL)
	}
}
