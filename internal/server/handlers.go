package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jonathan/resume-matcher/internal/observability"
	"github.com/jonathan/resume-matcher/internal/pipeline"
	"github.com/jonathan/resume-matcher/internal/types"
)

// ScanRequest is the request body for /v1/scan and /v1/scan/stream
type ScanRequest struct {
	JobDescription string `json:"jobDescription" validate:"required"`
	Resume         string `json:"resume" validate:"required"`
}

// KeywordsRequest is the request body for /v1/keywords
type KeywordsRequest struct {
	Text string `json:"text" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// decodeRequest reads a size-limited JSON body into dst and validates it.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return &ErrValidation{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return &ErrValidation{Field: verrs[0].Field(), Message: fmt.Sprintf("failed %q", verrs[0].Tag())}
		}
		return &ErrValidation{Field: "body", Message: err.Error()}
	}
	return nil
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := errorBody(err)
	logger := observability.LoggerFromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Int("status", status), zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Int("status", status), zap.Error(err))
	}
	jsonResponse(w, status, resp)
}

// handleScan scores a resume against a job description
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	report, err := s.scanner.Scan(r.Context(), req.JobDescription, req.Resume)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, report)
}

// handleScanStream runs a scan and streams progress events, then the report, via SSE
func (s *Server) handleScanStream(w http.ResponseWriter, r *http.Request) {
	var req ScanRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	logger := observability.LoggerFromContext(r.Context())

	ctx := pipeline.WithProgress(r.Context(), func(event pipeline.ProgressEvent) {
		if err := sse.WriteEvent("progress", event); err != nil {
			logger.Warn("failed to write SSE event", zap.Error(err))
		}
	})

	report, err := s.scanner.Scan(ctx, req.JobDescription, req.Resume)
	if err != nil {
		_, resp := errorBody(err)
		logger.Warn("streamed scan failed", zap.Error(err))
		if werr := sse.WriteError(resp); werr != nil {
			logger.Warn("failed to write SSE error", zap.Error(werr))
		}
		return
	}
	if err := sse.WriteEvent("result", report); err != nil {
		logger.Warn("failed to write SSE result", zap.Error(err))
	}
}

// handleKeywords extracts and validates the keywords of one document
func (s *Server) handleKeywords(w http.ResponseWriter, r *http.Request) {
	var req KeywordsRequest
	if err := s.decodeRequest(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	keywords, warnings, err := s.scanner.Keywords(r.Context(), req.Text)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, types.KeywordsReport{Keywords: *keywords, Warnings: warnings})
}
