// Package web serves the study UI: an HTMX front end over the quiz session,
// deck and source layers. Every interaction swaps a server-rendered fragment;
// the browser keeps no state beyond the session token baked into each form.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minhvt/gongbu/internal/deck"
	"github.com/minhvt/gongbu/internal/domain"
	"github.com/minhvt/gongbu/internal/progress"
	"github.com/minhvt/gongbu/internal/quiz"
	"github.com/minhvt/gongbu/internal/shuffle"
	decksync "github.com/minhvt/gongbu/internal/sync"
)

//go:embed all:static
var staticFiles embed.FS

//go:embed all:templates
var templateFiles embed.FS

// maxSessions caps the in-memory quiz sessions; the oldest is dropped when a
// new one would exceed it. A single user never gets near this.
const maxSessions = 64

// quizSession is one live drill, guarded by its own lock because the
// auto-advance timer fires on a separate goroutine.
type quizSession struct {
	mu      sync.Mutex
	sess    *quiz.Session
	tracker *progress.Tracker
	scope   domain.Scope
	auto    *quiz.AutoAdvance
	created time.Time
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	decks       *deck.Service
	ledger      *progress.Ledger
	sources     *decksync.Manager
	autoAdvance time.Duration
	router      *http.ServeMux
	templates   *template.Template

	mu       sync.Mutex
	sessions map[string]*quizSession
}

// NewServer creates and configures a new server. autoAdvance is how long a
// correct sentence answer stays on screen; zero disables auto-advancing.
func NewServer(decks *deck.Service, ledger *progress.Ledger, sources *decksync.Manager, autoAdvance time.Duration) (*Server, error) {
	tpl, err := template.ParseFS(templateFiles, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	s := &Server{
		decks:       decks,
		ledger:      ledger,
		sources:     sources,
		autoAdvance: autoAdvance,
		router:      http.NewServeMux(),
		templates:   tpl,
		sessions:    make(map[string]*quizSession),
	}
	s.routes()
	return s, nil
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		// The embed directive guarantees the directory exists.
		panic(err)
	}
	fileServer := http.FileServer(http.FS(staticFS))

	s.router.Handle("/static/", http.StripPrefix("/static/", fileServer))
	s.router.Handle("/", fileServer)

	s.router.HandleFunc("/decks", s.handleDecks())
	s.router.HandleFunc("/decks/delete", s.handleDeleteDeck())
	s.router.HandleFunc("/flashcards", s.handleFlashcards())

	s.router.HandleFunc("/quiz", s.handleStartQuiz())
	s.router.HandleFunc("/quiz/current", s.handleQuizCurrent())
	s.router.HandleFunc("/quiz/answer", s.quizOp(func(sess *quiz.Session, input string) quiz.Snapshot {
		return sess.Submit(input)
	}))
	s.router.HandleFunc("/quiz/advance", s.quizOp(func(sess *quiz.Session, _ string) quiz.Snapshot {
		return sess.Advance()
	}))
	s.router.HandleFunc("/quiz/prev", s.quizOp(func(sess *quiz.Session, _ string) quiz.Snapshot {
		return sess.Prev()
	}))
	s.router.HandleFunc("/quiz/next", s.quizOp(func(sess *quiz.Session, _ string) quiz.Snapshot {
		return sess.Next()
	}))
	s.router.HandleFunc("/quiz/mode", s.handleQuizMode())
	s.router.HandleFunc("/quiz/clear", s.handleQuizClear())

	s.router.HandleFunc("/import", s.handleImport())
	s.router.HandleFunc("/export", s.handleExport())

	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		slog.Error("template render failed", "template", name, "error", err)
	}
}

func scopeFromRequest(r *http.Request) (domain.Scope, error) {
	category, err := domain.ParseCategory(r.FormValue("category"))
	if err != nil {
		return domain.Scope{}, err
	}
	return domain.Scope{Category: category, CardID: strings.TrimSpace(r.FormValue("card"))}, nil
}

// putSession registers a live quiz under a fresh token, evicting the oldest
// session when the table is full.
func (s *Server) putSession(qs *quizSession) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= maxSessions {
		var oldestToken string
		var oldest time.Time
		for token, existing := range s.sessions {
			if oldestToken == "" || existing.created.Before(oldest) {
				oldestToken, oldest = token, existing.created
			}
		}
		s.sessions[oldestToken].auto.Cancel()
		delete(s.sessions, oldestToken)
	}

	token := uuid.NewString()
	s.sessions[token] = qs
	return token
}

func (s *Server) getSession(token string) (*quizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	qs, ok := s.sessions[token]
	return qs, ok
}

// handleDecks renders the home screen: every stored deck with its drill
// actions, plus the import and export forms.
func (s *Server) handleDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.renderDecks(w, "")
	}
}

func (s *Server) renderDecks(w http.ResponseWriter, message string) {
	s.render(w, "decks", decksView{
		Decks:   deckRows(s.decks.List()),
		Message: message,
	})
}

// handleDeleteDeck removes a deck and all its progress, then re-renders the
// home screen.
func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.decks.Delete(scope)
		s.renderDecks(w, fmt.Sprintf("Deleted deck %s.", scope.String()))
	}
}

// handleFlashcards renders a deck as flip-through cards in shuffled order.
func (s *Server) handleFlashcards() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.render(w, "flashcards", flashcardsView(scope, shuffle.Items(s.decks.Load(scope))))
	}
}

// handleStartQuiz builds a fresh shuffled session over a deck and renders the
// drill screen for it.
func (s *Server) handleStartQuiz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.startQuiz(w, scope)
	}
}

func (s *Server) startQuiz(w http.ResponseWriter, scope domain.Scope) {
	tracker := s.ledger.Track(scope)
	qs := &quizSession{
		sess:    quiz.NewSession(s.decks.Load(scope), tracker),
		tracker: tracker,
		scope:   scope,
		auto:    quiz.NewAutoAdvance(s.autoAdvance),
		created: time.Now(),
	}
	token := s.putSession(qs)

	qs.mu.Lock()
	defer qs.mu.Unlock()
	s.renderQuiz(w, token, qs, qs.sess.Snapshot())
}

// quizOp wraps one session operation: look up the session, cancel any pending
// auto-advance, apply the operation under the session lock and re-render.
func (s *Server) quizOp(op func(*quiz.Session, string) quiz.Snapshot) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		token := r.FormValue("session")
		qs, ok := s.getSession(token)
		if !ok {
			s.render(w, "session_expired", nil)
			return
		}

		qs.auto.Cancel()
		qs.mu.Lock()
		defer qs.mu.Unlock()

		snap := op(qs.sess, r.FormValue("input"))
		if s.shouldAutoAdvance(qs, snap) {
			qs.auto.Schedule(func() {
				qs.mu.Lock()
				qs.sess.Advance()
				qs.mu.Unlock()
			})
		}
		s.renderQuiz(w, token, qs, snap)
	}
}

// shouldAutoAdvance reports whether the snapshot just earned a timed advance:
// a correct sentence answer, standing in the answered phase.
func (s *Server) shouldAutoAdvance(qs *quizSession, snap quiz.Snapshot) bool {
	return s.autoAdvance > 0 &&
		qs.scope.Category.Sentence() &&
		snap.Phase == quiz.PhaseAnswered &&
		snap.Result != nil && snap.Result.Correct
}

// handleQuizCurrent re-renders a session as it stands; the sentence screen
// polls it once after the auto-advance delay.
func (s *Server) handleQuizCurrent() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, ok := s.getSession(r.FormValue("session"))
		if !ok {
			s.render(w, "session_expired", nil)
			return
		}
		qs.mu.Lock()
		defer qs.mu.Unlock()
		s.renderQuiz(w, r.FormValue("session"), qs, qs.sess.Snapshot())
	}
}

// handleQuizMode toggles wrong-only review for a scope and starts a fresh
// session under the new mode.
func (s *Server) handleQuizMode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.ledger.SetWrongOnly(scope, r.FormValue("wrong_only") == "on")
		s.startQuiz(w, scope)
	}
}

// handleQuizClear wipes the progress records for a scope and starts over.
func (s *Server) handleQuizClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var ids []string
		for _, it := range s.decks.Load(scope) {
			ids = append(ids, it.ItemID())
		}
		s.ledger.Invalidate(scope, ids)
		s.startQuiz(w, scope)
	}
}

// handleImport merges an uploaded CSV file into a deck.
func (s *Server) handleImport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, "Missing CSV file", http.StatusBadRequest)
			return
		}
		defer file.Close()

		res, err := s.decks.Import(scope, file)
		if err != nil {
			slog.Warn("import rejected", "scope", scope.String(), "error", err)
			s.renderDecks(w, fmt.Sprintf("Import failed: %v", err))
			return
		}

		message := fmt.Sprintf("Imported %d rows into %s: %d added, %d updated.",
			res.Imported, scope.String(), res.Added, res.Updated)
		if res.Changed {
			message += " Progress for this deck was reset."
		}
		s.renderDecks(w, message)
	}
}

// handleExport streams a deck as a CSV download.
func (s *Server) handleExport() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scope, err := scopeFromRequest(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		name := string(scope.Category)
		if scope.CardID != "" {
			name += "." + scope.CardID
		}
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+".csv"))

		if _, err := s.decks.Export(scope, w); err != nil {
			slog.Error("export failed", "scope", scope.String(), "error", err)
		}
	}
}

// handleSources handles both GET and POST for the sources page.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.render(w, "sources", sourcesView{Sources: sourceRows(s.sources.Sources())})
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

// handlePostSource adds a new source and re-renders the source list.
func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSpace(r.PostFormValue("path"))
	if path == "" {
		http.Error(w, "Path cannot be empty", http.StatusBadRequest)
		return
	}

	if _, err := s.sources.Add(path); err != nil {
		slog.Warn("failed to add source", "path", path, "error", err)
		s.render(w, "source_list", sourcesView{Sources: sourceRows(s.sources.Sources()), Message: err.Error()})
		return
	}
	s.render(w, "source_list", sourcesView{Sources: sourceRows(s.sources.Sources())})
}

// handleDeleteSource removes a source and re-renders the source list.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		id := strings.TrimPrefix(r.URL.Path, "/sources/")
		if !s.sources.Remove(id) {
			http.Error(w, "Unknown source", http.StatusNotFound)
			return
		}
		s.render(w, "source_list", sourcesView{Sources: sourceRows(s.sources.Sources())})
	}
}

// handlePostSync runs a sync in the foreground and re-renders the source list
// with the run's summary.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		rep, err := s.sources.Run()
		message := fmt.Sprintf("Sync finished: %d files, %d rows, %d errors.", rep.Files, rep.Items, rep.Errors)
		if err != nil {
			message = fmt.Sprintf("Sync failed: %v", err)
		}
		s.render(w, "source_list", sourcesView{Sources: sourceRows(s.sources.Sources()), Message: message})
	}
}
