// Package web serves the dashboard: server-rendered pages, the input and
// pointer endpoints that drive the page controllers, and the websocket that
// tells browsers when to re-pull their page.
package web

import (
	"bytes"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/geo"
	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/engine/session"
	"github.com/farsdash/farsdash/pkg/metrics"
	"github.com/farsdash/farsdash/pkg/mid"
	"github.com/farsdash/farsdash/pkg/resilience"
)

// Options configures a Server.
type Options struct {
	Store *session.Store
	// Shapes are the state outlines projected onto the map canvas.
	Shapes  []geo.Shape
	Years   []int
	Limiter *resilience.KeyedLimiter
	Metrics *metrics.Registry
	Logger  *slog.Logger

	CORSOrigin   string
	SecureCookie bool
}

// Server is the dashboard's HTTP surface.
type Server struct {
	store   *session.Store
	shapes  []geo.Shape
	years   []int
	limiter *resilience.KeyedLimiter
	reg     *metrics.Registry
	log     *slog.Logger
	cors    string
	secure  bool
}

// New creates a Server.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}
	if opts.Limiter == nil {
		opts.Limiter = resilience.NewKeyedLimiter(resilience.LimiterOpts{})
	}
	if opts.CORSOrigin == "" {
		opts.CORSOrigin = "*"
	}
	return &Server{
		store:   opts.Store,
		shapes:  opts.Shapes,
		years:   opts.Years,
		limiter: opts.Limiter,
		reg:     opts.Metrics,
		log:     opts.Logger,
		cors:    opts.CORSOrigin,
		secure:  opts.SecureCookie,
	}
}

// Handler returns the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleNational)
	mux.HandleFunc("GET /state/{stateId}", s.handleDetail)
	mux.HandleFunc("GET /fragment", s.handleFragment)
	mux.HandleFunc("POST /events", s.handleEvent)
	mux.HandleFunc("POST /pointer/map", s.handleMapPointer)
	mux.HandleFunc("POST /pointer/trend", s.handleTrendPointer)
	mux.HandleFunc("GET /ws", s.handleWS)
	mux.Handle("GET /static/", staticHandler())
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.Handle("GET /metrics", s.reg.Handler())

	return mid.Chain(mux,
		mid.Recover(s.log),
		mid.OTel("farsdash"),
		mid.Logger(s.log),
		mid.CORS(s.cors),
		mid.Session(s.secure),
	)
}

func (s *Server) session(r *http.Request) *session.Session {
	return s.store.Get(mid.SessionID(r.Context()))
}

func (s *Server) handleNational(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	if err := sess.Post(r.Context(), session.ViewNational, page.Init{}); err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderNational(w, r, sess, true)
}

func (s *Server) handleDetail(w http.ResponseWriter, r *http.Request) {
	raw := r.PathValue("stateId")
	n, err := strconv.Atoi(raw)
	if err != nil {
		http.Error(w, "invalid state id "+strconv.Quote(raw), http.StatusBadRequest)
		return
	}
	id := domain.StateID(n)
	if err := domain.ValidateStateID(id); err != nil {
		http.Error(w, "unknown state "+raw, http.StatusNotFound)
		return
	}
	sess := s.session(r)
	if err := sess.Open(r.Context(), id); err != nil {
		s.fail(w, r, err)
		return
	}
	s.renderDetail(w, r, sess, true)
}

func (s *Server) handleFragment(w http.ResponseWriter, r *http.Request) {
	sess := s.session(r)
	switch r.URL.Query().Get("view") {
	case "", "national":
		s.renderNational(w, r, sess, false)
	case "detail":
		s.renderDetail(w, r, sess, false)
	default:
		http.Error(w, "unknown view", http.StatusBadRequest)
	}
}

func (s *Server) renderNational(w http.ResponseWriter, r *http.Request, sess *session.Session, full bool) {
	version := sess.Version()
	v, err := buildNational(sess.National(), s.shapes, version)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, "national", "Alcohol-Impaired Traffic Fatalities", v, version, full)
}

func (s *Server) renderDetail(w http.ResponseWriter, r *http.Request, sess *session.Session, full bool) {
	version := sess.Version()
	d := sess.Detail()
	v, err := buildDetail(d, version)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.write(w, r, "detail", d.Name()+" | Alcohol-Impaired Fatalities", v, version, full)
}

func (s *Server) write(w http.ResponseWriter, r *http.Request, view, title string, data any, version uint64, full bool) {
	var body bytes.Buffer
	if err := execute(&body, view, data); err != nil {
		s.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Farsdash-Version", strconv.FormatUint(version, 10))
	if !full {
		body.WriteTo(w)
		return
	}
	if err := execute(w, "layout", layoutData{Title: title, View: view, Body: template.HTML(body.String())}); err != nil {
		s.log.Error("write page", "view", view, "err", err)
	}
}

// fail maps an error to a response: validation errors are the client's
// fault, anything else is logged and hidden.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		httpError(w, r, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrClosed):
		httpError(w, r, "session expired, reload the page", http.StatusGone)
	default:
		s.log.Error("request failed", "path", r.URL.Path, "err", err)
		httpError(w, r, "internal server error", http.StatusInternalServerError)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

func httpError(w http.ResponseWriter, r *http.Request, msg string, code int) {
	if wantsJSON(r) {
		writeJSON(w, code, map[string]string{"error": msg})
		return
	}
	http.Error(w, msg, code)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
