package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/farsdash/farsdash/engine/domain"
	"github.com/farsdash/farsdash/engine/page"
	"github.com/farsdash/farsdash/engine/session"
)

var errUnknownEvent = errors.New("unknown event type")

// eventRequest is the body of POST /events, sent either as a form or as
// JSON with the same field names. Numeric JSON fields may be strings or
// bare numbers.
type eventRequest struct {
	View   string    `json:"view"`
	Type   string    `json:"type"`
	Year   formValue `json:"year"`
	Metric string    `json:"metric"`
	State  formValue `json:"state"`
	MinAge formValue `json:"min_age"`
	MaxAge formValue `json:"max_age"`
	Sex    formValue `json:"sex"`
}

// formValue holds a field as the form would have sent it. JSON null
// decodes to "".
type formValue string

func (v *formValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*v = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = formValue(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("want a string or number, got %s", b)
	}
	*v = formValue(b)
	return nil
}

func readEventRequest(w http.ResponseWriter, r *http.Request) (eventRequest, error) {
	var req eventRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req)
		return req, err
	}
	if err := r.ParseForm(); err != nil {
		return req, err
	}
	req = eventRequest{
		View:   r.PostForm.Get("view"),
		Type:   r.PostForm.Get("type"),
		Year:   formValue(r.PostForm.Get("year")),
		Metric: r.PostForm.Get("metric"),
		State:  formValue(r.PostForm.Get("state")),
		MinAge: formValue(r.PostForm.Get("min_age")),
		MaxAge: formValue(r.PostForm.Get("max_age")),
		Sex:    formValue(r.PostForm.Get("sex")),
	}
	return req, nil
}

func parseView(s string) (session.View, bool) {
	switch s {
	case "", "national":
		return session.ViewNational, true
	case "detail":
		return session.ViewDetail, true
	}
	return 0, false
}

// events translates a request into the controller inputs it stands for.
// Applying filters from a form also carries the edited criteria.
func (s *Server) events(sess *session.Session, view session.View, req eventRequest) ([]page.Event, error) {
	switch req.Type {
	case "year":
		year, err := strconv.Atoi(strings.TrimSpace(string(req.Year)))
		if err != nil {
			return nil, domain.NewValidationError("year", string(req.Year), domain.ErrInvalidYear)
		}
		if len(s.years) > 0 && view == session.ViewNational && !slices.Contains(s.years, year) {
			return nil, domain.NewValidationError("year", string(req.Year), domain.ErrInvalidYear)
		}
		return []page.Event{page.YearSelected{Year: year}}, nil

	case "metric":
		m, err := domain.ParseMetric(req.Metric)
		if err != nil {
			return nil, err
		}
		return []page.Event{page.MetricSelected{Metric: m}}, nil

	case "toggle":
		id, err := domain.ParseStateID(string(req.State))
		if err != nil {
			return nil, err
		}
		n := sess.National()
		if i := slices.Index(n.Selected, id); i >= 0 {
			return []page.Event{page.StateToggled{Entry: domain.HeatmapEntry{StateID: id, StateName: n.Series[i].StateName}}}, nil
		}
		for _, e := range n.Heatmap {
			if e.StateID == id {
				return []page.Event{page.StateToggled{Entry: e}}, nil
			}
		}
		return nil, domain.NewValidationError("state", string(req.State), domain.ErrInvalidState)

	case "dismiss":
		return []page.Event{page.AlertDismissed{}}, nil

	case "filter", "apply":
		f, err := domain.ParseFilter(string(req.MinAge), string(req.MaxAge), string(req.Sex))
		if err != nil {
			return nil, err
		}
		evs := []page.Event{page.FilterEdited{Criteria: f}}
		if req.Type == "apply" {
			evs = append(evs, page.FiltersApplied{})
		}
		return evs, nil

	case "clear":
		return []page.Event{page.FiltersCleared{}}, nil
	}
	return nil, domain.NewValidationError("type", req.Type, errUnknownEvent)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	req, err := readEventRequest(w, r)
	if err != nil {
		httpError(w, r, "invalid request body", http.StatusBadRequest)
		return
	}
	view, ok := parseView(req.View)
	if !ok {
		httpError(w, r, "unknown view "+strconv.Quote(req.View), http.StatusBadRequest)
		return
	}

	sess := s.session(r)
	evs, err := s.events(sess, view, req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := post(r.Context(), sess, view, evs); err != nil {
		s.fail(w, r, err)
		return
	}

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, map[string]uint64{"version": sess.Version()})
		return
	}
	target := "/"
	if view == session.ViewDetail {
		target = "/state/" + sess.Detail().StateID.String()
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

func post(ctx context.Context, sess *session.Session, view session.View, evs []page.Event) error {
	for _, ev := range evs {
		if err := sess.Post(ctx, view, ev); err != nil {
			return err
		}
	}
	return nil
}
