package server

import (
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"meeting_notes_summarizer/client"
	"meeting_notes_summarizer/httpx"
	"meeting_notes_summarizer/meeting"
)

//go:embed web/templates/*.html
var templatesFS embed.FS

// Form describes one summarizer page. Pages differ only in these settings and
// share the handlers below.
type Form struct {
	Name         string
	Title        string
	Path         string
	Endpoint     string
	Instruction  string
	AllowPaste   bool
	Reviewable   bool
	MissingInput string
	EmptySummary string
}

// DefaultForms returns the full page and the upload-only quick page, both
// summarizing through endpoint.
func DefaultForms(endpoint string) []Form {
	return []Form{
		{
			Name:         "full",
			Title:        "AI Meeting Notes Summarizer",
			Path:         "/",
			Endpoint:     endpoint,
			Instruction:  meeting.DefaultInstruction,
			AllowPaste:   true,
			Reviewable:   true,
			MissingInput: "Please upload a .txt file or paste the transcript.",
		},
		{
			Name:         "quick",
			Title:        "AI Meeting Notes Summarizer",
			Path:         "/quick",
			Endpoint:     endpoint,
			MissingInput: "Please upload a file first!",
			EmptySummary: "No summary returned.",
		},
	}
}

// Options configure the front-end server.
type Options struct {
	Client       *client.Client
	Forms        []Form
	Logger       *slog.Logger
	WorkspaceTTL time.Duration
	MaxUpload    int64
}

type Server struct {
	client      *client.Client
	forms       map[string]Form
	summarizers map[string]meeting.Summarizer
	store       *workspaceStore
	pages       *template.Template
	logger      *slog.Logger
	maxUpload   int64
}

type workspaceStore struct {
	mu         sync.Mutex
	ttl        time.Duration
	workspaces map[string]*meeting.Workspace
}

func newStore(ttl time.Duration) *workspaceStore {
	return &workspaceStore{ttl: ttl, workspaces: make(map[string]*meeting.Workspace)}
}

func (s *workspaceStore) create(form, instruction string) *meeting.Workspace {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sweepLocked(time.Now())
	ws := meeting.NewWorkspace(uuid.NewString(), form, instruction)
	s.workspaces[ws.ID] = ws
	return ws
}

func (s *workspaceStore) get(id string) (*meeting.Workspace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ws, ok := s.workspaces[id]
	if !ok {
		return nil, false
	}
	if s.ttl > 0 && ws.IdleSince(time.Now().Add(-s.ttl)) {
		delete(s.workspaces, id)
		return nil, false
	}
	return ws, true
}

func (s *workspaceStore) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.workspaces)
}

func (s *workspaceStore) sweepLocked(now time.Time) {
	if s.ttl <= 0 {
		return
	}
	cutoff := now.Add(-s.ttl)
	for id, ws := range s.workspaces {
		if ws.IdleSince(cutoff) {
			delete(s.workspaces, id)
		}
	}
}

func New(opts Options) (*Server, error) {
	if opts.Client == nil {
		return nil, errors.New("backend client required")
	}
	if len(opts.Forms) == 0 {
		return nil, errors.New("at least one form required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	maxUpload := opts.MaxUpload
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}

	pages, err := template.New("pages").Funcs(template.FuncMap{
		"isRequesting": func(s meeting.State) bool { return s == meeting.StateRequesting },
	}).ParseFS(templatesFS, "web/templates/*.html")
	if err != nil {
		return nil, err
	}

	s := &Server{
		client:      opts.Client,
		forms:       make(map[string]Form, len(opts.Forms)),
		summarizers: make(map[string]meeting.Summarizer, len(opts.Forms)),
		store:       newStore(opts.WorkspaceTTL),
		pages:       pages,
		logger:      logger,
		maxUpload:   maxUpload,
	}
	for _, f := range opts.Forms {
		if f.Name == "" || f.Path == "" || f.Endpoint == "" {
			return nil, errors.New("form needs a name, a path and an endpoint")
		}
		s.forms[f.Name] = f
		s.summarizers[f.Name] = opts.Client.WithSummarizePath(f.Endpoint)
	}
	return s, nil
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(httpx.LogRequests(s.logger))
	r.Use(middleware.Recoverer)

	for _, f := range s.forms {
		r.Get(f.Path, s.handleBlankForm(f))
	}
	r.Post("/forms/{form}/summarize", s.handleSummarize)
	r.Route("/w/{id}", func(r chi.Router) {
		r.Get("/", s.handleWorkspace)
		r.Post("/summary", s.handleEdit)
		r.Post("/email", s.handleEmail)
	})
	r.Post("/api/summarize", s.handleProxy)
	r.Get("/health", httpx.Health)
	return r
}
