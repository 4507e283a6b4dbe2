package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"

	"github.com/minhvt/gongbu/internal/config"
	"github.com/minhvt/gongbu/internal/deck"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/logging"
	"github.com/minhvt/gongbu/internal/progress"
	"github.com/minhvt/gongbu/internal/storage"
	decksync "github.com/minhvt/gongbu/internal/sync"
	"github.com/minhvt/gongbu/internal/web"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "import":
		err = runImport(os.Args[2:])
	case "export":
		err = runExport(os.Args[2:])
	case "sources":
		err = runSources(os.Args[2:])
	case "sync":
		err = runSync(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", os.Args[1])
		printUsage()
		os.Exit(2)
	}
	if err != nil {
		slog.Error("command failed", "error", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprint(os.Stderr, `gongbu - Korean study decks

Usage:
  gongbu serve                                start the web UI
  gongbu import <category>[:<card>] <file>    merge a CSV file into a deck
  gongbu export <category>[:<card>] [<file>]  write a deck as CSV (stdout by default)
  gongbu sources [list]                       list registered deck sources
  gongbu sources add <path-or-git-url>        register a deck source
  gongbu sources remove <id>                  unregister a deck source
  gongbu sync                                 pull every source into the decks

Common flags: --config, --db, --namespace, --log.level, --log.format
`)
}

// commonFlags defines the flags every command shares. Flag names double as
// config keys, so a flag that is set overrides the file and environment
// layers for that key.
func commonFlags(name string) (*pflag.FlagSet, *string) {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	cfgPath := fs.String("config", "", "path to a YAML config file")
	fs.String("db", "", "path to the SQLite database file")
	fs.String("namespace", "", "storage namespace")
	fs.String("log.level", "", "log level (debug, info, warn, error)")
	fs.String("log.format", "", "log format (text, json)")
	return fs, cfgPath
}

// app bundles the wired-up services every command works against.
type app struct {
	cfg     config.Config
	db      *storage.DB
	ledger  *progress.Ledger
	decks   *deck.Service
	sources *decksync.Manager
}

func setup(fs *pflag.FlagSet, cfgPath string) (*app, error) {
	cfg, err := config.Load(cfgPath, fs)
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, err
	}

	keys := domain.Keys{NS: cfg.Namespace}
	ledger := progress.NewLedger(db, keys)
	decks := deck.NewService(db, keys, ledger)
	return &app{
		cfg:     cfg,
		db:      db,
		ledger:  ledger,
		decks:   decks,
		sources: decksync.NewManager(db, keys, decks, filepath.Join(filepath.Dir(cfg.DB), "repos")),
	}, nil
}

func (a *app) Close() {
	if err := a.db.Close(); err != nil {
		slog.Warn("failed to close database", "error", err)
	}
}

// parseScopeArg reads a deck argument like "vocab" or "sentences:travel".
func parseScopeArg(arg string) (domain.Scope, error) {
	name, card, _ := strings.Cut(arg, ":")
	category, err := domain.ParseCategory(name)
	if err != nil {
		return domain.Scope{}, err
	}
	return domain.Scope{Category: category, CardID: strings.TrimSpace(card)}, nil
}

func runServe(args []string) error {
	fs, cfgPath := commonFlags("serve")
	fs.String("listen", "", "address to serve the web UI on")
	fs.String("quiz.autoadvance", "", "how long a correct sentence answer stays on screen, 0 disables")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(fs, *cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	srv, err := web.NewServer(a.decks, a.ledger, a.sources, a.cfg.Quiz.AutoAdvance)
	if err != nil {
		return err
	}

	slog.Info("Serving study UI", "addr", a.cfg.Listen, "db", a.cfg.DB, "namespace", a.cfg.Namespace)
	return http.ListenAndServe(a.cfg.Listen, srv)
}

func runImport(args []string) error {
	fs, cfgPath := commonFlags("import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: gongbu import <category>[:<card>] <file.csv>")
	}
	scope, err := parseScopeArg(rest[0])
	if err != nil {
		return err
	}

	a, err := setup(fs, *cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	f, err := os.Open(rest[1])
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", rest[1], err)
	}
	defer f.Close()

	res, err := a.decks.Import(scope, f)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %d rows into %s: %d added, %d updated, %d total.\n",
		res.Imported, scope.String(), res.Added, res.Updated, res.Total)
	if res.Changed {
		fmt.Println("Progress for this deck was reset.")
	}
	return nil
}

func runExport(args []string) error {
	fs, cfgPath := commonFlags("export")
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) != 1 && len(rest) != 2 {
		return fmt.Errorf("usage: gongbu export <category>[:<card>] [<file.csv>]")
	}
	scope, err := parseScopeArg(rest[0])
	if err != nil {
		return err
	}

	a, err := setup(fs, *cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	out := os.Stdout
	if len(rest) == 2 {
		f, err := os.Create(rest[1])
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", rest[1], err)
		}
		defer f.Close()
		out = f
	}

	n, err := a.decks.Export(scope, out)
	if err != nil {
		return err
	}
	if len(rest) == 2 {
		fmt.Printf("Exported %d items from %s to %s.\n", n, scope.String(), rest[1])
	}
	return nil
}

func runSources(args []string) error {
	fs, cfgPath := commonFlags("sources")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(fs, *cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	rest := fs.Args()
	sub := "list"
	if len(rest) > 0 {
		sub = rest[0]
	}

	switch sub {
	case "list":
		sources := a.sources.Sources()
		if len(sources) == 0 {
			fmt.Println("No sources registered.")
			return nil
		}
		for _, src := range sources {
			fmt.Printf("%s  %-5s  %s\n", src.ID, src.Type, src.Path)
		}
		return nil
	case "add":
		if len(rest) != 2 {
			return fmt.Errorf("usage: gongbu sources add <path-or-git-url>")
		}
		src, err := a.sources.Add(rest[1])
		if err != nil {
			return err
		}
		fmt.Printf("Added %s source %s.\n", src.Type, src.Path)
		return nil
	case "remove":
		if len(rest) != 2 {
			return fmt.Errorf("usage: gongbu sources remove <id>")
		}
		if !a.sources.Remove(rest[1]) {
			return fmt.Errorf("no source with id %s", rest[1])
		}
		fmt.Printf("Removed source %s.\n", rest[1])
		return nil
	default:
		return fmt.Errorf("unknown sources command %q", sub)
	}
}

func runSync(args []string) error {
	fs, cfgPath := commonFlags("sync")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := setup(fs, *cfgPath)
	if err != nil {
		return err
	}
	defer a.Close()

	rep, err := a.sources.Run()
	if err != nil {
		return err
	}
	fmt.Printf("Synced %d sources: %d files, %d rows, %d errors.\n",
		rep.Sources, rep.Files, rep.Items, rep.Errors)
	return nil
}
