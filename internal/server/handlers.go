package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/matzehuels/antpack/pkg/buildinfo"
	"github.com/matzehuels/antpack/pkg/cache"
	apperr "github.com/matzehuels/antpack/pkg/errors"
	resultio "github.com/matzehuels/antpack/pkg/io"
	"github.com/matzehuels/antpack/pkg/pipeline"
	"github.com/matzehuels/antpack/pkg/problem"
	"github.com/matzehuels/antpack/pkg/render"
)

// SolveRequest is the body of POST /v1/solve: a problem file in JSON form
// plus the number of runs.
type SolveRequest struct {
	problem.File
	Runs int `json:"runs,omitempty"`
}

// SolveResponse is returned by POST /v1/solve and GET /v1/results/{id}.
type SolveResponse struct {
	ID      string             `json:"id"`
	BestRun int                `json:"best_run"`
	Runs    []pipeline.RunInfo `json:"runs"`
	Result  resultio.Document  `json:"result"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const codeTimeout = "TIMEOUT"

func runKey(id string) string { return "run:" + id }

func (s *Server) handleSolve(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req SolveRequest
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInvalidFormat, err, "decode request"))
		return
	}
	p, err := req.Resolve()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.checkLimits(len(p.Items), p.Bins, p.Config.Evaluations(), max(req.Runs, 1)); err != nil {
		s.writeError(w, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.SolveTimeout)
	defer cancel()

	res, err := s.runner.Execute(ctx, pipeline.Options{Problem: p, Runs: req.Runs})
	if err != nil {
		s.writeError(w, err)
		return
	}

	resp := SolveResponse{
		ID:      s.newID(),
		BestRun: res.BestRun,
		Runs:    res.Runs,
		Result:  res.Document,
	}
	if data, err := json.Marshal(resp); err == nil {
		if err := s.runner.Cache.Set(r.Context(), runKey(resp.ID), data, cache.TTLResult); err != nil {
			s.logger.Warn("store result failed", "id", resp.ID, "error", err)
		}
	}
	s.logger.Info("solved", "id", resp.ID, "items", len(p.Items), "bins", p.Bins, "fitness", res.Best.Fitness)

	w.Header().Set("Location", "/v1/results/"+resp.ID)
	writeJSON(w, http.StatusCreated, resp)
}

// checkLimits rejects problems above the configured size. The total budget
// is evaluations*runs, compared without multiplying.
func (s *Server) checkLimits(items, bins, evaluations, runs int) error {
	if items > s.cfg.MaxItems {
		return apperr.InvalidInput("at most %d items allowed, got %d", s.cfg.MaxItems, items)
	}
	if bins > s.cfg.MaxBins {
		return apperr.InvalidInput("at most %d bins allowed, got %d", s.cfg.MaxBins, bins)
	}
	if evaluations > s.cfg.MaxBudget/runs {
		return apperr.InvalidConfiguration("at most %d evaluations allowed, got %d per run over %d runs", s.cfg.MaxBudget, evaluations, runs)
	}
	return nil
}

// loadResult fetches a stored response by ID.
func (s *Server) loadResult(ctx context.Context, id string) (*SolveResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.New(apperr.ErrCodeNotFound, "result %q not found", id)
	}
	data, hit, err := s.runner.Cache.Get(ctx, runKey(id))
	if err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "load result")
	}
	if !hit {
		return nil, apperr.New(apperr.ErrCodeNotFound, "result %q not found", id)
	}
	var resp SolveResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, apperr.Wrap(apperr.ErrCodeInternal, err, "decode stored result")
	}
	return &resp, nil
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	resp, err := s.loadResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

var contentTypes = map[render.Format]string{
	render.FormatDOT: "text/vnd.graphviz; charset=utf-8",
	render.FormatSVG: "image/svg+xml",
	render.FormatPDF: "application/pdf",
	render.FormatPNG: "image/png",
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	resp, err := s.loadResult(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	q := r.URL.Query()
	format := render.FormatSVG
	if v := q.Get("format"); v != "" {
		if format, err = render.ParseFormat(v); err != nil {
			s.writeError(w, apperr.Wrap(apperr.ErrCodeInvalidInput, err, "format"))
			return
		}
	}
	pathOnly := false
	if v := q.Get("path_only"); v != "" {
		if pathOnly, err = strconv.ParseBool(v); err != nil {
			s.writeError(w, apperr.InvalidInput("path_only must be a boolean, got %q", v))
			return
		}
	}

	p, res, err := resp.Result.Restore()
	if err != nil {
		s.writeError(w, apperr.Wrap(apperr.ErrCodeInternal, err, "restore stored result"))
		return
	}
	data, err := s.runner.Render(r.Context(), p, res, format, pathOnly)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type healthResponse struct {
	Status string  `json:"status"`
	Cache  string  `json:"cache"`
	Uptime float64 `json:"uptime_seconds"`
	Error  string  `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Cache: "ok", Uptime: time.Since(s.started).Seconds()}
	if _, _, err := s.runner.Cache.Get(ctx, "health:probe"); err != nil {
		resp.Status, resp.Cache, resp.Error = "degraded", "unreachable", err.Error()
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// statusFor maps an error to its HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, codeTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, codeTimeout
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, string(apperr.ErrCodeInvalidInput)
	}

	code := apperr.GetCode(err)
	switch code {
	case apperr.ErrCodeInvalidInput, apperr.ErrCodeInvalidConfiguration,
		apperr.ErrCodeInvalidFormat, apperr.ErrCodeInvalidPath:
		return http.StatusBadRequest, string(code)
	case apperr.ErrCodeNotFound, apperr.ErrCodeFileNotFound:
		return http.StatusNotFound, string(code)
	case apperr.ErrCodeUnsupported:
		return http.StatusNotImplemented, string(code)
	case "":
		return http.StatusInternalServerError, string(apperr.ErrCodeInternal)
	}
	return http.StatusInternalServerError, string(code)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, ErrorResponse{Code: code, Message: message(err, status)})
}

// message returns the client-facing text of err. Causes are only exposed
// for client errors.
func message(err error, status int) string {
	var e *apperr.Error
	if errors.As(err, &e) && e.Cause != nil && status < http.StatusInternalServerError {
		return e.Message + ": " + e.Cause.Error()
	}
	if status >= http.StatusInternalServerError && apperr.GetCode(err) == "" {
		return http.StatusText(status)
	}
	return apperr.UserMessage(err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
