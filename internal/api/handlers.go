package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cvilledata/crimedash/internal/analysis"
	"github.com/cvilledata/crimedash/internal/filter"
	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/logging"
)

// HealthResponse reports dataset freshness.
type HealthResponse struct {
	Status   string     `json:"status"`
	Records  int        `json:"records"`
	Skipped  int        `json:"skipped_rows"`
	LoadedAt time.Time  `json:"loaded_at"`
	Latest   *time.Time `json:"latest_incident,omitempty"`
}

// OptionsResponse lists the selectable values per dimension.
type OptionsResponse struct {
	Options filter.Options `json:"options"`
	Matched int            `json:"matched"`
	Total   int            `json:"total"`
}

// RefreshResponse reports the reloaded table.
type RefreshResponse struct {
	Records  int       `json:"records"`
	LoadedAt time.Time `json:"loaded_at"`
}

// selection loads the table and parses the request's filter parameters.
// It writes the error response itself and returns ok=false on failure.
func (s *Server) selection(w http.ResponseWriter, r *http.Request) (*incident.Table, filter.Selection, bool) {
	t, err := s.src.Get(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return nil, filter.Selection{}, false
	}
	sel, err := filter.FromQuery(r.URL.Query(), t.Loc())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
		return nil, filter.Selection{}, false
	}
	return t, sel, true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	t, err := s.src.Get(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	resp := HealthResponse{Status: "ok", Records: t.Len(), Skipped: t.Skipped, LoadedAt: t.LoadedAt}
	if _, last, ok := t.Span(); ok {
		resp.Latest = &last
	}
	respondOK(w, r, resp)
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	t, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondOK(w, r, OptionsResponse{
		Options: filter.ComputeOptions(t, sel),
		Matched: filter.Apply(t, sel).Len(),
		Total:   t.Len(),
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	t, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondOK(w, r, analysis.ComputeMetrics(filter.Apply(t, sel), s.now(), s.metrics))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	t, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondOK(w, r, analysis.BuildDashboard(t, sel, s.now(), s.metrics))
}

func (s *Server) handleAggregate(w http.ResponseWriter, r *http.Request) {
	t, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	req := analysis.AggregateRequest{Kind: chi.URLParam(r, "kind")}
	if p := q.Get("period"); p != "" {
		period, err := analysis.ParsePeriod(p)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeInvalidParameter, err.Error())
			return
		}
		req.Period = period
	}
	if l := q.Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, codeInvalidParameter, "limit must be a non-negative integer")
			return
		}
		req.Limit = n
	}
	switch strings.ToLower(q.Get("order")) {
	case "", "top", "desc":
	case "bottom", "asc":
		req.Bottom = true
	default:
		respondError(w, r, http.StatusBadRequest, codeInvalidParameter, "order must be top or bottom")
		return
	}
	res, err := analysis.Aggregate(filter.Apply(t, sel), req)
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	respondOK(w, r, res)
}

func (s *Server) handleHeatmap(w http.ResponseWriter, r *http.Request) {
	t, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondOK(w, r, analysis.Heatmap(filter.Apply(t, sel)))
}

func (s *Server) handlePoints(w http.ResponseWriter, r *http.Request) {
	t, sel, ok := s.selection(w, r)
	if !ok {
		return
	}
	respondOK(w, r, analysis.Points(filter.Apply(t, sel)))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.src.Invalidate()
	t, err := s.src.Get(r.Context())
	if err != nil {
		respondFailure(w, r, err)
		return
	}
	logging.Ctx(r.Context()).Info().Int("records", t.Len()).Msg("dataset refreshed on request")
	respondOK(w, r, RefreshResponse{Records: t.Len(), LoadedAt: t.LoadedAt})
}
