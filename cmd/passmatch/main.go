// Package main is the entry point for the passmatch tool.
// passmatch finds the stored credentials that belong to a URL, falling back from
// exact URL matches to host matches and finally to free-text search.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/f4ah6o/passmatch-go/internal/config"
	"github.com/f4ah6o/passmatch-go/internal/presenter"
	"github.com/f4ah6o/passmatch-go/internal/resolver"
	"github.com/f4ah6o/passmatch-go/internal/selection"
	"github.com/f4ah6o/passmatch-go/internal/vault"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	subcommand := os.Args[1]

	switch subcommand {
	case "find":
		runFind(os.Args[2:])
	case "search":
		runSearch(os.Args[2:])
	case "add":
		runAdd(os.Args[2:])
	case "import":
		runImport(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "-h", "--help", "help":
		printUsage()
	default:
		// A bare URL is treated as a find command
		if strings.Contains(subcommand, "://") || strings.Contains(subcommand, ".") {
			runFind(os.Args[1:])
		} else {
			fmt.Fprintf(os.Stderr, "Unknown subcommand: %s\n\n", subcommand)
			printUsage()
			os.Exit(1)
		}
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `passmatch - Find the stored credentials for a URL

passmatch looks up a URL in a credential database. It tries the exact URL, then
the host name, then parent domains, and finally a free-text search.

Usage:
  passmatch find <URL> [options]
  passmatch search <TEXT> [options]
  passmatch add <URL> [options]
  passmatch import <BOOKMARKS.html> [options]
  passmatch check [options]
  passmatch help

Commands:
  find        Find the entries for a URL
  search      Search all entries for text
  add         Create an entry for a URL
  import      Import entries from a browser bookmark export
  check       Validate the database
  help        Show this help message

Examples:
  passmatch find https://accounts.google.com/signin
  passmatch find androidapp://com.example.app --json
  passmatch add https://bank.example.com --username alice
  passmatch search "vpn"

Configuration is read from $PASSMATCH_HOME/config.toml (default ~/.passmatch/config.toml).

For more information on a command, use:
  passmatch <command> -h
`)
}

// commonFlags are accepted by every command that opens the database.
type commonFlags struct {
	db            string
	readOnly      bool
	jsonOutput    bool
	showPasswords bool
	verbose       bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.db, "db", "", "Path to the database (default from config)")
	fs.BoolVar(&c.readOnly, "read-only", false, "Open the database read-only")
	fs.BoolVar(&c.jsonOutput, "json", false, "Output results as JSON")
	fs.BoolVar(&c.showPasswords, "show-password", false, "Include passwords in the output")
	fs.BoolVar(&c.verbose, "verbose", false, "Log every resolution stage")
}

// environment is what a command needs after flags and config are combined.
type environment struct {
	home string
	cfg  *config.Config
	out  *presenter.Presenter
}

func loadEnvironment(c *commonFlags) environment {
	home, err := config.Home()
	if err != nil {
		log.Fatalf("Failed to get passmatch home directory: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if c.db != "" {
		cfg.Database = c.db
	}
	if c.readOnly {
		cfg.ReadOnly = true
	}
	if c.verbose {
		cfg.Verbose = true
	}

	out := presenter.New()
	out.JSON = c.jsonOutput
	out.ShowPasswords = c.showPasswords

	return environment{home: home, cfg: cfg, out: out}
}

// openDatabase opens the configured database.
// With create set, a missing database is started empty instead of failing.
func openDatabase(env environment, create bool) *vault.Database {
	db, err := vault.Open(env.cfg.Database, env.cfg.ReadOnly)
	if err == nil {
		return db
	}
	if create && errors.Is(err, os.ErrNotExist) && !env.cfg.ReadOnly {
		log.Printf("Info: %s not found, a new database will be created.", env.cfg.Database)
		return vault.New(env.cfg.Database, "passmatch")
	}
	log.Fatalf("Failed to open database: %v", err)
	return nil
}

func runFind(args []string) {
	fs := flag.NewFlagSet("find", flag.ExitOnError)

	var common commonFlags
	common.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: passmatch find <URL> [options]

Find the entries stored for a URL.

Arguments:
  URL         The URL to look up (androidapp:// identifiers are supported)

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Matching Stages (the first stage with results wins):
  1. exact-url        - Stored URL equals the URL
  2. host             - Stored host equals the URL's host
  3. host-subdomains  - Stored host is the URL's host or a parent domain of it
  4. text             - URL appears in any text field
  5. host-text        - URL's host appears in any text field
Stages 2 and 3 are skipped for androidapp:// URLs.

Exactly one match prints that entry; several matches print a list to choose from.
`)
	}

	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: URL is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	url := fs.Arg(0)
	env := loadEnvironment(&common)
	db := openDatabase(env, false)

	r := resolver.New()
	r.Verbose = env.cfg.Verbose

	d, err := selection.Run(url, db, r, env.out)
	if err != nil {
		var qerr *resolver.QueryError
		if errors.As(err, &qerr) {
			os.Exit(1)
		}
		log.Fatalf("Failed to print results: %v", err)
	}

	if env.cfg.Verbose {
		log.Printf("Outcome: %s (stage %q, %d matches)", d.Outcome, d.Stage, d.Matches.Len())
	}
}

func runSearch(args []string) {
	fs := flag.NewFlagSet("search", flag.ExitOnError)

	var common commonFlags
	common.register(fs)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: passmatch search <TEXT> [options]

Search titles, usernames, URLs, notes and tags for text (case-insensitive).

Options:
`)
		fs.PrintDefaults()
	}

	fs.Parse(reorderArgs(fs, args))

	if fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Error: search text is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	query := fs.Arg(0)
	env := loadEnvironment(&common)
	db := openDatabase(env, false)

	matches, err := db.SearchForText(query)
	if err != nil {
		env.out.ShowError(err)
		os.Exit(1)
	}

	if err := env.out.ShowSearch(query, matches); err != nil {
		log.Fatalf("Failed to print results: %v", err)
	}
}
