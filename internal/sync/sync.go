// Package sync pulls deck content in from registered sources: local
// directories or git repositories holding CSV deck files. Each file named
// `<category>.csv` or `<category>.<cardId>.csv` is imported into the matching
// deck through the usual merge, so re-running a sync is idempotent and only
// deck-changing files reset progress.
package sync

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/minhvt/gongbu/internal/deck"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/gitsource"
	"github.com/minhvt/gongbu/internal/storage"
)

// Source is one registered deck origin.
type Source struct {
	ID      string `json:"id"`
	Type    string `json:"type"` // local or git
	Path    string `json:"path"`
	AddedAt int64  `json:"addedAt"`
}

// Manager owns the source list and the sync runs over it.
type Manager struct {
	store    storage.Store
	keys     domain.Keys
	decks    *deck.Service
	reposDir string
}

// NewManager returns a Manager that keeps git checkouts under reposDir.
func NewManager(store storage.Store, keys domain.Keys, decks *deck.Service, reposDir string) *Manager {
	return &Manager{store: store, keys: keys, decks: decks, reposDir: reposDir}
}

// Sources returns the registered sources. An unreadable list reads as empty
// but is left in place.
func (m *Manager) Sources() []Source {
	raw, ok := m.store.Get(m.keys.Sources())
	if !ok {
		return nil
	}
	var sources []Source
	if err := json.Unmarshal([]byte(raw), &sources); err != nil {
		slog.Warn("source list is unreadable, treating as empty", "error", err)
		return nil
	}
	return sources
}

func (m *Manager) save(sources []Source) {
	raw, err := json.Marshal(sources)
	if err != nil {
		slog.Error("failed to encode source list", "error", err)
		return
	}
	m.store.Set(m.keys.Sources(), string(raw))
}

// Add registers a new source. Git URLs are recognized by shape; anything else
// must be an existing directory.
func (m *Manager) Add(path string) (Source, error) {
	for _, src := range m.Sources() {
		if src.Path == path {
			return Source{}, fmt.Errorf("source %s is already registered", path)
		}
	}

	typ := "local"
	if isGitPath(path) {
		typ = "git"
	} else {
		info, err := os.Stat(path)
		if err != nil {
			return Source{}, fmt.Errorf("source path %s: %w", path, err)
		}
		if !info.IsDir() {
			return Source{}, fmt.Errorf("source path %s is not a directory", path)
		}
	}

	src := Source{
		ID:      uuid.NewString(),
		Type:    typ,
		Path:    path,
		AddedAt: time.Now().UnixMilli(),
	}
	m.save(append(m.Sources(), src))
	return src, nil
}

// Remove unregisters a source by id. The synced decks stay; only the origin
// is forgotten.
func (m *Manager) Remove(id string) bool {
	sources := m.Sources()
	kept := sources[:0]
	for _, src := range sources {
		if src.ID != id {
			kept = append(kept, src)
		}
	}
	if len(kept) == len(sources) {
		return false
	}
	m.save(kept)
	return true
}

func isGitPath(path string) bool {
	if strings.HasPrefix(path, "git@") || strings.HasSuffix(path, ".git") {
		return true
	}
	u, err := url.Parse(path)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}

// Report summarizes one sync run.
type Report struct {
	Sources int
	Files   int
	Items   int
	Errors  int
}

// Run reconciles every registered source. Per-source and per-file failures
// are logged and counted rather than aborting the run; only being unable to
// create the checkout directory is fatal.
func (m *Manager) Run() (Report, error) {
	var rep Report
	sources := m.Sources()
	rep.Sources = len(sources)

	if len(sources) == 0 {
		slog.Info("No sources configured. Add one with: gongbu sources add <path-or-git-url>")
		return rep, nil
	}

	if err := os.MkdirAll(m.reposDir, 0o755); err != nil {
		return rep, fmt.Errorf("failed to create repos directory %s: %w", m.reposDir, err)
	}

	for _, src := range sources {
		slog.Info("Syncing source", "id", src.ID, "type", src.Type, "path", src.Path)

		dir := src.Path
		if src.Type == "git" {
			localPath, err := gitPathFor(m.reposDir, src.Path)
			if err != nil {
				slog.Error("Cannot map git URL to a local path", "url", src.Path, "error", err)
				rep.Errors++
				continue
			}
			if err := gitsource.Sync(src.Path, localPath); err != nil {
				slog.Error("Failed to sync git repository", "url", src.Path, "error", err)
				rep.Errors++
				continue
			}
			dir = localPath
		}

		m.reconcileDir(dir, &rep)
	}

	slog.Info("sync complete",
		"sources", rep.Sources,
		"files", rep.Files,
		"items", rep.Items,
		"errors", rep.Errors,
	)
	return rep, nil
}

// reconcileDir imports every deck CSV file under dir.
func (m *Manager) reconcileDir(dir string, rep *Report) {
	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			// Checkout metadata is not deck content.
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		scope, ok := scopeFromFilename(d.Name())
		if !ok {
			return nil
		}

		f, openErr := os.Open(path)
		if openErr != nil {
			slog.Error("Failed to open deck file", "file", path, "error", openErr)
			rep.Errors++
			return nil
		}
		defer f.Close()

		res, importErr := m.decks.Import(scope, f)
		if importErr != nil {
			slog.Error("Failed to import deck file", "file", path, "error", importErr)
			rep.Errors++
			return nil
		}

		rep.Files++
		rep.Items += res.Imported
		slog.Info("Imported deck file",
			"file", path,
			"scope", scope.String(),
			"added", res.Added,
			"updated", res.Updated,
			"changed", res.Changed,
		)
		return nil
	})
	if walkErr != nil {
		slog.Error("Error walking source directory", "path", dir, "error", walkErr)
		rep.Errors++
	}
}

// scopeFromFilename maps a deck file name to its scope: `vocab.csv` is the
// default vocab deck, `sentences.travel.csv` the travel sentence sub-deck.
func scopeFromFilename(name string) (domain.Scope, bool) {
	name = strings.ToLower(name)
	if !strings.HasSuffix(name, ".csv") {
		return domain.Scope{}, false
	}

	parts := strings.SplitN(strings.TrimSuffix(name, ".csv"), ".", 2)
	category, err := domain.ParseCategory(parts[0])
	if err != nil {
		return domain.Scope{}, false
	}

	scope := domain.Scope{Category: category}
	if len(parts) == 2 {
		if parts[1] == "" {
			return domain.Scope{}, false
		}
		scope.CardID = parts[1]
	}
	return scope, true
}

// gitPathFor maps a repository URL to its checkout directory under baseDir,
// keyed by host and repository path. Both https URLs and scp-like
// git@host:path addresses are supported.
func gitPathFor(baseDir, repoURL string) (string, error) {
	parsed, err := url.Parse(repoURL)
	if err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		return filepath.Join(baseDir, parsed.Host, strings.TrimSuffix(parsed.Path, ".git")), nil
	}

	if at := strings.Index(repoURL, "@"); at >= 0 {
		if host, repoPath, ok := strings.Cut(repoURL[at+1:], ":"); ok && host != "" && repoPath != "" {
			return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
		}
	}
	return "", fmt.Errorf("could not parse git URL: %s", repoURL)
}
