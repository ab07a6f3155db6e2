package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dgallion1/regsplit/internal/compose"
	"github.com/dgallion1/regsplit/internal/manifest"
	"github.com/dgallion1/regsplit/internal/pdfdoc"
	"github.com/dgallion1/regsplit/internal/pipeline"
	"github.com/dgallion1/regsplit/internal/selector"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// splitResponse is the success envelope of the synchronous split call.
type splitResponse struct {
	Status string `json:"status"`
	*manifest.Manifest
}

// upload is a validated split request.
type upload struct {
	filename string
	data     []byte
	opts     pipeline.Options
}

// requestError carries the status code for a rejected upload.
type requestError struct {
	code int
	msg  string
}

func (e *requestError) Error() string { return e.msg }

func badRequest(format string, args ...any) *requestError {
	return &requestError{code: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

func (s *Server) tooLarge() *requestError {
	return &requestError{
		code: http.StatusRequestEntityTooLarge,
		msg:  fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes),
	}
}

// readUpload parses the multipart form shared by /split-pdf and /api/jobs.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, s.tooLarge()
		}
		return nil, badRequest("invalid multipart form: %v", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, badRequest("No file uploaded")
	}
	defer file.Close()

	filename := sanitizeFilename(header.Filename)
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return nil, &requestError{code: http.StatusInternalServerError, msg: "failed to read file"}
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		return nil, s.tooLarge()
	}
	if !pdfdoc.IsPDFFilename(filename) && !pdfdoc.Sniff(data) {
		return nil, badRequest("File must be a PDF, got %q", filepath.Ext(filename))
	}

	opts, err := s.parseOptions(r)
	if err != nil {
		return nil, err
	}
	return &upload{filename: filename, data: data, opts: opts}, nil
}

// parseOptions applies form overrides on top of the runner defaults. A mode
// preset wins over explicit selection and composition fields.
func (s *Server) parseOptions(r *http.Request) (pipeline.Options, error) {
	opts := s.runner.Defaults()

	if v := r.FormValue("selection"); v != "" {
		p, err := selector.ParsePolicy(v)
		if err != nil {
			return opts, badRequest("%v", err)
		}
		opts.Selection = p
	}
	if v := r.FormValue("composition"); v != "" {
		p, err := compose.ParsePolicy(v)
		if err != nil {
			return opts, badRequest("%v", err)
		}
		opts.Composition = p
	}

	switch mode := strings.ToLower(r.FormValue("mode")); mode {
	case "":
	case "full":
		opts.Selection, opts.Composition = selector.All, compose.Stack
	case "fast":
		opts.Selection, opts.Composition = selector.First, compose.Stack
	case "half":
		opts.Selection, opts.Composition = selector.All, compose.StackCropTopHalf
	default:
		return opts, badRequest("unknown mode: %q", mode)
	}

	if v := r.FormValue("dpi"); v != "" {
		dpi, err := strconv.ParseFloat(v, 64)
		if err != nil || dpi < 36 || dpi > 600 {
			return opts, badRequest("dpi must be a number between 36 and 600")
		}
		opts.DPI = dpi
	}
	return opts, nil
}

func (s *Server) handleSplit(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	up, err := s.readUpload(w, r)
	if err != nil {
		var re *requestError
		if errors.As(err, &re) {
			envelopeError(w, re.msg, re.code)
			return
		}
		envelopeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	log := s.log.With("filename", up.filename, "bytes", len(up.data))
	m, err := s.runner.Run(r.Context(), up.data, up.opts, nil)
	if err != nil {
		kind := pipeline.KindOf(err)
		log.Error("split failed", "kind", kind, "error", err)
		envelopeError(w, err.Error(), statusForKind(kind))
		return
	}

	log.Info("split completed", "students", m.TotalStudents, "orphans", len(m.OrphanPages))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(splitResponse{Status: "success", Manifest: m})
}

func (s *Server) handleSubmitJob(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	up, err := s.readUpload(w, r)
	if err != nil {
		var re *requestError
		if errors.As(err, &re) {
			jsonError(w, re.msg, re.code)
			return
		}
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	job := pipeline.NewJob(uuid.NewString(), up.filename, up.data, up.opts)
	if err := s.orchestrator.Submit(job); err != nil {
		jsonError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]any{
		"job_id":   job.ID,
		"status":   pipeline.StatusQueued,
		"poll_url": fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobID")
	job := s.orchestrator.GetJob(jobID)
	if job == nil {
		jsonError(w, "job not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job.Snapshot())
}

// statusForKind maps pipeline failures to HTTP codes. Only bad input is the
// caller's fault.
func statusForKind(kind pipeline.ErrorKind) int {
	if kind == pipeline.KindMalformedInput {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func envelopeError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "message": msg})
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func removeForm(r *http.Request) {
	if r.MultipartForm != nil {
		r.MultipartForm.RemoveAll()
	}
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." {
		name = "unnamed"
	}
	return name
}
