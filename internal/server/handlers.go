package server

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/matzehuels/svgexport/pkg/buildinfo"
	"github.com/matzehuels/svgexport/pkg/errors"
	"github.com/matzehuels/svgexport/pkg/exportspec"
	"github.com/matzehuels/svgexport/pkg/geometry"
	"github.com/matzehuels/svgexport/pkg/inspect"
	"github.com/matzehuels/svgexport/pkg/job"
	"github.com/matzehuels/svgexport/pkg/token"
)

// Response headers set by /v1/export.
const (
	HeaderSpec    = "X-Export-Spec"
	HeaderCache   = "X-Export-Cache"
	HeaderIgnored = "X-Export-Ignored"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, buildinfo.Get())
}

// handleExport renders the SVG in the request body.
//
// Query parameters: token (repeatable) and format (png, jpeg or jpg). The
// format sets the output extension the tokens are resolved against, so a
// jpeg token still wins over format=png.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	q := r.URL.Query()
	output := "export.png"
	switch f := strings.ToLower(q.Get("format")); f {
	case "", "png":
	case "jpeg", "jpg":
		output = "export.jpg"
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want png or jpeg)", f))
		return
	}

	input, cleanup, err := spool(body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer cleanup()

	j := job.Job{
		ID:     requestIDFrom(ctx),
		Input:  input,
		Output: output,
		Tokens: token.New(q["token"]...),
	}
	art, hit, err := s.runner.Render(ctx, j, body)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sum, err := exportspec.ParseLine(art.Spec)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "bad cached spec"))
		return
	}

	h := w.Header()
	h.Set("Content-Type", sum.Format.ContentType())
	h.Set(HeaderSpec, art.Spec)
	h.Set(HeaderCache, cacheStatus(hit))
	if len(art.Ignored) > 0 {
		h.Set(HeaderIgnored, strings.Join(art.Ignored, " "))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(art.Data); err != nil {
		s.logger.Debug("write response", "id", j.ID, "err", err)
	}
}

// resolveRequest is the body of POST /v1/resolve. Either Natural or SVG
// must be given; SVG is measured from its width, height and viewBox.
type resolveRequest struct {
	Natural *geometry.Box `json:"natural"`
	SVG     string        `json:"svg"`
	Tokens  []string      `json:"tokens"`
	Output  string        `json:"output"`
}

type resolveResponse struct {
	Spec    exportspec.Spec `json:"spec"`
	Line    string          `json:"line"`
	Ignored []string        `json:"ignored"`
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	body, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var req resolveRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode request"))
		return
	}

	var natural geometry.Box
	switch {
	case req.Natural != nil:
		natural = *req.Natural
	case req.SVG != "":
		n, err := inspect.Static(strings.NewReader(req.SVG))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		natural = n.Box
	default:
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "request needs natural or svg"))
		return
	}

	spec, ignored, err := exportspec.Resolve(natural, token.New(req.Tokens...), req.Output)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	rest := ignored.Tokens()
	if rest == nil {
		rest = []string{}
	}
	writeJSON(w, http.StatusOK, resolveResponse{
		Spec:    spec,
		Line:    spec.String(),
		Ignored: rest,
	})
}

// readBody reads at most maxBody bytes. An empty body is an error.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, errTooLarge{limit: tooLarge.Limit}
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read body")
	}
	if len(body) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty request body")
	}
	return body, nil
}

// spool writes an uploaded SVG to a temporary file, since engines read
// their input from disk.
func spool(body []byte) (path string, cleanup func(), err error) {
	f, err := os.CreateTemp("", "svgexport-*.svg")
	if err != nil {
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "create temp file")
	}
	cleanup = func() { os.Remove(f.Name()) }
	if _, err := f.Write(body); err != nil {
		f.Close()
		cleanup()
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "write temp file")
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, errors.Wrap(errors.ErrCodeInternal, err, "close temp file")
	}
	return f.Name(), cleanup, nil
}

func cacheStatus(hit bool) string {
	if hit {
		return "hit"
	}
	return "miss"
}
