package server

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"LeverageLens/internal/analysis"
	"LeverageLens/internal/collector"
	"LeverageLens/internal/config"
	"LeverageLens/internal/model"
	"LeverageLens/internal/recorder"
)

//go:embed web/index.html
var indexHTML string

// Server is the HTTP dashboard.
type Server struct {
	Source   *collector.PairSource
	Defaults func(today time.Time) (model.Request, error)
	Recorder recorder.Recorder
	Now      func() time.Time
}

// New creates a dashboard server.
func New(src *collector.PairSource, defaults func(time.Time) (model.Request, error), rec recorder.Recorder) *Server {
	return &Server{Source: src, Defaults: defaults, Recorder: rec, Now: time.Now}
}

// Handler returns the dashboard routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/analyze", s.handleAnalyze)
	mux.HandleFunc("GET /api/runs", s.handleRuns)
	return mux
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	log.Infof("LeverageLens dashboard running on http://localhost%s", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRequest(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	table, err := s.Source.Load(r.Context(), req.Start, req.End)
	if err != nil {
		log.Warnf("analyze %s..%s: %v", req.Start.Format(model.DateLayout), req.End.Format(model.DateLayout), err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	res, err := analysis.Compute(req, table)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidRequest) {
			status = http.StatusBadRequest
		}
		writeError(w, status, err)
		return
	}

	if _, err := s.Recorder.RecordRun(&recorder.RunRecord{Trigger: recorder.TriggerHTTP, Result: res}); err != nil {
		log.Errorf("record run: %v", err)
	}
	writeJSON(w, http.StatusOK, newResultView(res))
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("limit must be 1..500"))
			return
		}
		limit = n
	}
	runs, err := s.Recorder.RecentRuns(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if runs == nil {
		runs = []recorder.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// parseRequest applies query parameters on top of the configured defaults.
func (s *Server) parseRequest(q url.Values) (model.Request, error) {
	today := s.Now()
	req, err := s.Defaults(today)
	if err != nil {
		return model.Request{}, err
	}

	if v := strings.TrimSpace(q.Get("variant")); v != "" {
		variant, err := model.ParseVariant(v)
		if err != nil {
			return model.Request{}, err
		}
		if variant != req.Variant {
			base := req
			req = model.DefaultRequest(variant, today)
			req.Start = base.Start
			req.Convention = base.Convention
		}
	}

	bad := func(name string, err error) error {
		return fmt.Errorf("%w: %s: %v", model.ErrInvalidRequest, name, err)
	}
	if v := q.Get("start"); v != "" {
		if req.Start, err = model.ParseDate(v); err != nil {
			return model.Request{}, bad("start", err)
		}
	}
	if v := q.Get("end"); v != "" {
		if req.End, err = model.ParseDate(v); err != nil {
			return model.Request{}, bad("end", err)
		}
	}
	for name, dst := range map[string]*int{"window": &req.SMAWindow, "minLag": &req.MinLag, "maxLag": &req.MaxLag} {
		if v := q.Get(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return model.Request{}, bad(name, err)
			}
			*dst = n
		}
	}
	if v := q.Get("drop"); v != "" {
		if req.DropThresholdPct, err = strconv.ParseFloat(v, 64); err != nil {
			return model.Request{}, bad("drop", err)
		}
	}
	if v := q.Get("align"); v != "" {
		if req.AlignmentDays, err = config.ParseDays(v); err != nil {
			return model.Request{}, bad("align", err)
		}
	}
	if v := q.Get("convention"); v != "" {
		if req.Convention, err = model.ParseConvention(v); err != nil {
			return model.Request{}, err
		}
	}
	return req, req.Validate()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Errorf("encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]interface{}{"success": false, "error": err.Error()})
}
