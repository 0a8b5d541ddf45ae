package server

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/pyhub-apps/pdflinker/internal/feedback"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
)

// User facing messages
const (
	msgInfo = "This application scans a textbook PDF for questions formatted as 'X. ' " +
		"(number followed by a dot and space) and hyperlinks them for easier navigation."
	msgThanks          = "Thank you for your feedback!"
	msgIncomplete      = "Please fill in all fields before submitting."
	msgNoProblems      = "No problems found in the document."
	msgUnreadable      = "The uploaded file is not a readable PDF."
	msgTooLarge        = "The uploaded file is too large."
	msgMissingFile     = "Please upload a textbook PDF."
	msgInvalidOverride = "Invalid solutions page or heading."
	msgInternal        = "Something went wrong while linking the document."
)

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>FastBook</title>
</head>
<body>
<h1>📖 FastBook</h1>
{{if .ShowInfo}}<p class="info">{{.Info}}</p>{{else}}<p><a href="/?info=1">ℹ️ Info</a></p>{{end}}
{{if .Notice}}<p class="notice">{{.Notice}}</p>{{end}}
<form action="/link" method="post" enctype="multipart/form-data">
<label for="file">Upload a textbook PDF</label>
<input type="file" id="file" name="file" accept="application/pdf">
<details>
<summary>Options</summary>
<label for="solutions_page">Solutions start on page</label>
<input type="number" id="solutions_page" name="solutions_page" min="1">
<label for="solutions_heading">Solutions heading</label>
<input type="text" id="solutions_heading" name="solutions_heading">
</details>
<button type="submit">Download Linked PDF</button>
</form>
<h2>Feedback</h2>
<form action="/feedback" method="post">
<label for="name">Name</label>
<input type="text" id="name" name="name">
<label for="email">Email</label>
<input type="email" id="email" name="email">
<label for="feedback">Feedback</label>
<textarea id="feedback" name="feedback"></textarea>
<button type="submit">Submit</button>
</form>
</body>
</html>
`))

type indexData struct {
	ShowInfo bool
	Info     string
	Notice   string
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{
		ShowInfo: r.URL.Query().Get("info") == "1",
		Info:     msgInfo,
	}
	if r.URL.Query().Get("feedback") == "thanks" {
		data.Notice = msgThanks
	}

	var buf bytes.Buffer
	if err := indexTemplate.Execute(&buf, data); err != nil {
		s.logger.Error("failed to render index", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

func (s *Server) handleLink(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.MaxUploadBytes()
	if r.ContentLength > limit {
		http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	file, _, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			http.Error(w, msgTooLarge, http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, msgMissingFile, http.StatusBadRequest)
		return
	}
	defer file.Close()

	input, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, msgUnreadable, http.StatusBadRequest)
		return
	}

	opts, err := s.requestOptions(r.FormValue("solutions_page"), r.FormValue("solutions_heading"))
	if err != nil {
		http.Error(w, msgInvalidOverride, http.StatusBadRequest)
		return
	}

	var out bytes.Buffer
	result, err := linker.New(opts...).Link(r.Context(), input, &out)
	if err != nil {
		status, msg := linkErrorStatus(err)
		s.logger.Info("link request failed", "run", result.RunID, "status", status, "error", err)
		http.Error(w, msg, status)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", OutputFilename))
	w.Header().Set("Content-Length", strconv.Itoa(out.Len()))
	w.Header().Set("X-Run-Id", result.RunID)
	w.Header().Set("X-Links-Added", strconv.Itoa(result.LinksAdded))
	_, _ = out.WriteTo(w)
}

// requestOptions applies per-request boundary overrides to the server's
// linker options. Empty values keep the configured boundary. Each run gets
// its own copy of the shared pdfcpu configuration.
func (s *Server) requestOptions(page, heading string, extra ...linker.Option) ([]linker.Option, error) {
	conf := *s.pdfConf
	opts := append([]linker.Option(nil), s.linkerOpts...)
	opts = append(opts, linker.WithConfiguration(&conf))

	page = strings.TrimSpace(page)
	heading = strings.TrimSpace(heading)
	if page != "" || heading != "" {
		boundary := s.boundary
		if page != "" {
			n, err := strconv.Atoi(page)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("invalid solutions page %q", page)
			}
			boundary.FromPage = n
		}
		if heading != "" {
			re, err := regexp.Compile(heading)
			if err != nil {
				return nil, err
			}
			boundary.Heading = re
		}
		opts = append(opts, linker.WithBoundary(boundary))
	}

	return append(opts, extra...), nil
}

// linkErrorStatus maps a linker error to an HTTP status and message.
func linkErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, linker.ErrNoProblemsFound):
		return http.StatusUnprocessableEntity, msgNoProblems
	case errors.Is(err, pdf.ErrOpen), errors.Is(err, linker.ErrPageCountMismatch):
		return http.StatusBadRequest, msgUnreadable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, msgInternal
	default:
		return http.StatusInternalServerError, msgInternal
	}
}

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	entry := feedback.Entry{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("feedback"),
		Time:    time.Now().UTC(),
	}

	if err := s.store.Save(r.Context(), entry); err != nil {
		if errors.Is(err, feedback.ErrIncompleteFeedback) {
			http.Error(w, msgIncomplete, http.StatusBadRequest)
			return
		}
		s.logger.Error("failed to save feedback", "error", err)
		http.Error(w, msgInternal, http.StatusInternalServerError)
		return
	}

	s.logger.Info("feedback received", "name", entry.Name, "email", entry.Email)
	http.Redirect(w, r, "/?feedback=thanks", http.StatusSeeOther)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "ok\n")
}
