package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/f4ah6o/passmatch-go/internal/backup"
	"github.com/f4ah6o/passmatch-go/internal/fetcher"
	"github.com/f4ah6o/passmatch-go/internal/importer"
	"github.com/f4ah6o/passmatch-go/internal/urlutil"
	"github.com/f4ah6o/passmatch-go/internal/validator"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

func runAdd(args []string) {
	fs := flag.NewFlagSet("add", flag.ExitOnError)

	var (
		common   commonFlags
		title    string
		username string
		password string
		notes    string
		group    string
		noFetch  bool
	)

	common.register(fs)
	fs.StringVar(&title, "title", "", "Entry title (default: page title or host)")
	fs.StringVar(&username, "username", "", "Username")
	fs.StringVar(&password, "password", "", "Password")
	fs.StringVar(&notes, "notes", "", "Notes")
	fs.StringVar(&group, "group", "", "Group to add the entry to")
	fs.BoolVar(&noFetch, "no-fetch", false, "Do not download the page to look up its title")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: passmatch add <URL> [options]

Create a new entry for a URL. The database must be writable.

Options:
`)
		fs.PrintDefaults()
	}

	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: URL is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	env := loadEnvironment(&common)
	db := openDatabase(env, true)

	if !db.CanWrite() {
		log.Fatalf("Cannot add entry: %v", vault.ErrReadOnly)
	}

	url := fs.Arg(0)
	if !urlutil.IsAppURL(url) {
		url = urlutil.Normalize(url)
	}

	if title == "" {
		title = lookupTitle(env, url, noFetch)
	}

	entry, err := db.AddEntry(vault.Entry{
		Title:    title,
		Username: username,
		Password: password,
		URL:      url,
		Notes:    notes,
		Group:    group,
	})
	if err != nil {
		log.Fatalf("Failed to add entry: %v", err)
	}

	saveDatabase(env, db)

	if err := env.out.ShowEntry(entry); err != nil {
		log.Fatalf("Failed to print entry: %v", err)
	}
}

func lookupTitle(env environment, url string, noFetch bool) string {
	if noFetch || !env.cfg.Fetch.Titles || urlutil.IsAppURL(url) {
		if host := urlutil.GetHost(url); host != "" {
			return host
		}
		return url
	}

	f := fetcher.New(env.cfg.FetchTimeout())
	f.SetUserAgent(env.cfg.Fetch.UserAgent)
	if locales := fetcher.ParseLocales(env.cfg.Fetch.Locales); locales != nil {
		f.SetLocales(locales)
	}
	return f.TitleFor(url)
}

// saveDatabase archives the current file when backups are enabled, then saves db.
func saveDatabase(env environment, db *vault.Database) {
	if env.cfg.Backup.Enabled {
		if _, err := os.Stat(db.Path()); err == nil {
			a := backup.New(env.cfg.Backup.Keep)
			if _, err := a.Archive(db.Path(), env.cfg.BackupDir(env.home)); err != nil {
				log.Fatalf("Failed to back up database: %v", err)
			}
		}
	}

	if err := db.Save(); err != nil {
		log.Fatalf("Failed to save database: %v", err)
	}
	log.Printf("Saved %s", db.Path())
}

func runImport(args []string) {
	fs := flag.NewFlagSet("import", flag.ExitOnError)

	var (
		common commonFlags
		dryRun bool
	)

	common.register(fs)
	fs.BoolVar(&dryRun, "dry-run", false, "List the bookmarks without changing the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: passmatch import <BOOKMARKS.html> [options]

Create entries from a browser bookmark export (Netscape HTML format).
Bookmark folders become groups; bookmarks whose URL is already stored are skipped.

Options:
`)
		fs.PrintDefaults()
	}

	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: bookmark file is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)
	env := loadEnvironment(&common)
	im := importer.New()

	if dryRun {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("Failed to read bookmarks: %v", err)
		}
		bookmarks, err := im.Parse(content)
		if err != nil {
			log.Fatalf("Failed to parse bookmarks: %v", err)
		}
		for i, b := range bookmarks {
			fmt.Printf("%d. [%s] %s - %s\n", i+1, b.Group, b.Title, b.URL)
		}
		return
	}

	db := openDatabase(env, true)
	summary, err := im.ImportFile(path, db)
	if err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	if summary.Added > 0 {
		saveDatabase(env, db)
	}
	fmt.Printf("Added %d entries, skipped %d.\n", summary.Added, summary.Skipped)
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)

	var common commonFlags
	common.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: passmatch check [options]

Validate the database: duplicate UUIDs, entries without title or URL,
unusable URLs and public-suffix hosts.

Options:
`)
		fs.PrintDefaults()
	}

	fs.Parse(reorderArgs(fs, args))

	common.readOnly = true
	env := loadEnvironment(&common)
	db := openDatabase(env, false)

	report, err := validator.New().Validate(db)
	if err != nil {
		log.Fatalf("Validation failed: %v", err)
	}
	if !report.OK() {
		os.Exit(1)
	}
}
