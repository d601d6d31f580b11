package web

import (
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/engine/render"
	"github.com/farsdash/farsdash/engine/session"
	"github.com/farsdash/farsdash/pkg/metrics"
	"github.com/farsdash/farsdash/pkg/mid"
)

// mapResponse is the map's interaction plus where to go on double-click.
type mapResponse struct {
	render.Interaction
	Href    string `json:"href,omitempty"`
	Version uint64 `json:"version"`
}

// trendResponse carries the crosshair and tooltip, or Hidden when the
// pointer maps to no year.
type trendResponse struct {
	Hover   *render.TrendHover `json:"hover,omitempty"`
	Hidden  bool               `json:"hidden"`
	Version uint64             `json:"version"`
}

// readPointer decodes a pointer body after the session's rate limit check.
func (s *Server) readPointer(w http.ResponseWriter, r *http.Request, endpoint string) (render.Pointer, bool) {
	if !s.limiter.Allow(mid.SessionID(r.Context())) {
		s.reg.Counter(metrics.WithLabels("farsdash_pointer_limited_total", "endpoint", endpoint),
			"Pointer events rejected by the per-session rate limit").Inc()
		httpError(w, r, "too many pointer events", http.StatusTooManyRequests)
		return render.Pointer{}, false
	}
	var p render.Pointer
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<12)).Decode(&p); err != nil {
		httpError(w, r, "invalid pointer event", http.StatusBadRequest)
		return p, false
	}
	kind, err := render.ParsePointerKind(string(p.Kind))
	if err != nil {
		httpError(w, r, err.Error(), http.StatusBadRequest)
		return p, false
	}
	p.Kind = kind
	return p, true
}

func (s *Server) handleMapPointer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPointer(w, r, "map")
	if !ok {
		return
	}
	sess := s.session(r)
	in := heatMap(sess.National(), s.shapes).Pointer(p)

	resp := mapResponse{Interaction: in}
	switch {
	case in.Click != nil:
		if err := sess.Post(r.Context(), session.ViewNational, page.StateToggled{Entry: in.Click.Entry}); err != nil {
			s.fail(w, r, err)
			return
		}
	case in.Navigate != nil:
		resp.Href = "/state/" + in.Navigate.StateID.String()
	}
	resp.Version = sess.Version()
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTrendPointer(w http.ResponseWriter, r *http.Request) {
	p, ok := s.readPointer(w, r, "trend")
	if !ok {
		return
	}
	sess := s.session(r)

	var tc *render.TrendChart
	switch chart(r.URL.Query().Get("chart")) {
	case "", chartNational:
		tc = nationalChart(sess.National())
	case chartState:
		tc = stateChart(sess.Detail())
	case chartFiltered:
		tc = filteredChart(sess.Detail())
	default:
		httpError(w, r, "unknown chart", http.StatusBadRequest)
		return
	}

	resp := trendResponse{Hidden: true, Version: sess.Version()}
	if p.Kind != render.PointerLeave {
		if hover, ok := tc.Pointer(p); ok {
			resp.Hover, resp.Hidden = &hover, false
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
