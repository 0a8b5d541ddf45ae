package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pyhub-apps/pdflinker/internal/config"
	"github.com/pyhub-apps/pdflinker/internal/feedback"
	"github.com/pyhub-apps/pdflinker/pkg/linker"
	"github.com/pyhub-apps/pdflinker/pkg/pdf"
	"github.com/pyhub-apps/pdflinker/pkg/pdf/pdftest"
)

func TestMain(m *testing.M) {
	api.DisableConfigDir()
	os.Exit(m.Run())
}

func textbook() []byte {
	return pdftest.New().
		AddTextPage("1. What is 2+2?", "2. What is 3+3?").
		AddTextPage("Solutions").
		AddTextPage("1. Answer: 4", "2. Answer: 6").
		Bytes()
}

func newTestServer(t *testing.T, mutate func(*config.Config)) (*Server, feedback.Store) {
	t.Helper()

	cfg := config.Default()
	cfg.Boundary.SolutionsHeading = `^Solutions$`
	cfg.Server.MaxUploadMB = 1
	if mutate != nil {
		mutate(cfg)
	}

	store, err := feedback.NewCSVStore(filepath.Join(t.TempDir(), "feedback.csv"))
	if err != nil {
		t.Fatalf("NewCSVStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := New(cfg, store, logger)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, store
}

func uploadRequest(t *testing.T, data []byte, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if data != nil {
		fw, err := mw.CreateFormFile("file", "textbook.pdf")
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/link", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestIndex(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)

	tests := []struct {
		name    string
		target  string
		want    []string
		notWant []string
	}{
		{
			name:    "plain",
			target:  "/",
			want:    []string{"📖 FastBook", "Upload a textbook PDF", "Download Linked PDF", `name="feedback"`},
			notWant: []string{"This application scans", msgThanks},
		},
		{
			name:   "info",
			target: "/?info=1",
			want:   []string{"This application scans a textbook PDF for questions formatted as"},
		},
		{
			name:   "thanks",
			target: "/?feedback=thanks",
			want:   []string{msgThanks},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.target, nil))

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			body := rec.Body.String()
			for _, w := range tt.want {
				if !strings.Contains(body, w) {
					t.Errorf("body missing %q", w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(body, w) {
					t.Errorf("body unexpectedly contains %q", w)
				}
			}
		})
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "ok\n" {
		t.Errorf("healthz = %d %q", rec.Code, rec.Body.String())
	}
}

func TestNewConfiguration(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	if s.pdfConf == nil || s.pdfConf.ValidationMode != model.ValidationRelaxed {
		t.Fatalf("pdfConf = %+v, want relaxed validation", s.pdfConf)
	}

	// Runs share the template but never the instance
	before := *s.pdfConf
	for range 2 {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, uploadRequest(t, textbook(), nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
	}
	if s.pdfConf.ValidationMode != before.ValidationMode {
		t.Errorf("shared configuration changed by a run")
	}
}

func TestLink(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, uploadRequest(t, textbook(), nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %q", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, OutputFilename) {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rec.Header().Get("X-Links-Added"); got != "4" {
		t.Errorf("X-Links-Added = %q, want 4", got)
	}
	if !bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF-")) {
		t.Errorf("body is not a PDF")
	}
}

func TestLinkErrors(t *testing.T) {
	t.Parallel()

	noHeading := func(c *config.Config) { c.Boundary.SolutionsHeading = "" }

	tests := []struct {
		name   string
		mutate func(*config.Config)
		data   []byte
		fields map[string]string
		want   int
	}{
		{name: "missing file", want: http.StatusBadRequest},
		{name: "not a pdf", data: []byte("hello"), want: http.StatusBadRequest},
		{
			name: "no problems found",
			data: pdftest.New().AddTextPage("Preface").Bytes(),
			want: http.StatusUnprocessableEntity,
		},
		{
			name:   "no boundary",
			mutate: noHeading,
			data:   textbook(),
			want:   http.StatusUnprocessableEntity,
		},
		{
			name:   "heading override",
			mutate: noHeading,
			data:   textbook(),
			fields: map[string]string{"solutions_heading": `^Solutions$`},
			want:   http.StatusOK,
		},
		{
			name:   "page override",
			mutate: noHeading,
			data:   textbook(),
			fields: map[string]string{"solutions_page": "2"},
			want:   http.StatusOK,
		},
		{
			name:   "bad page override",
			data:   textbook(),
			fields: map[string]string{"solutions_page": "zero"},
			want:   http.StatusBadRequest,
		},
		{
			name:   "bad heading override",
			data:   textbook(),
			fields: map[string]string{"solutions_heading": "("},
			want:   http.StatusBadRequest,
		},
		{
			name: "too large",
			data: bytes.Repeat([]byte("x"), 2<<20),
			want: http.StatusRequestEntityTooLarge,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestServer(t, tt.mutate)
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, uploadRequest(t, tt.data, tt.fields))

			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d (body %q)", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestFeedback(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		form     url.Values
		want     int
		wantBody string
		saved    int
	}{
		{
			name:  "complete",
			form:  url.Values{"name": {"Ada"}, "email": {"ada@example.com"}, "feedback": {"Great"}},
			want:  http.StatusSeeOther,
			saved: 1,
		},
		{
			name:     "incomplete",
			form:     url.Values{"name": {"Ada"}, "email": {" "}, "feedback": {"Great"}},
			want:     http.StatusBadRequest,
			wantBody: msgIncomplete,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, store := newTestServer(t, nil)
			req := httptest.NewRequest(http.MethodPost, "/feedback", strings.NewReader(tt.form.Encode()))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
			rec := httptest.NewRecorder()
			s.Handler().ServeHTTP(rec, req)

			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusSeeOther {
				if loc := rec.Header().Get("Location"); loc != "/?feedback=thanks" {
					t.Errorf("Location = %q", loc)
				}
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}

			entries, err := store.List(context.Background())
			if err != nil {
				t.Fatalf("List() error = %v", err)
			}
			if len(entries) != tt.saved {
				t.Errorf("saved %d entries, want %d", len(entries), tt.saved)
			}
		})
	}
}

func dialLink(t *testing.T, s *Server, query string) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	u := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/link" + query
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	return conn
}

func TestLinkSocket(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, nil)
	conn := dialLink(t, s, "")

	if err := conn.WriteMessage(websocket.BinaryMessage, textbook()); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	// The first frame reports 0% explicitly
	_, first, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if got := strings.TrimSpace(string(first)); got != `{"type":"progress","percent":0}` {
		t.Errorf("first frame = %s", got)
	}

	percents := []int{0}
	var result SocketMessage
	for {
		var msg SocketMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("ReadJSON() error = %v", err)
		}
		if msg.Type == MessageProgress {
			percents = append(percents, msg.Percent)
			continue
		}
		result = msg
		break
	}

	if result.Type != MessageResult {
		t.Fatalf("message type = %q (%q), want result", result.Type, result.Message)
	}
	if result.LinksAdded != 4 || result.Resolved != 2 || result.Filename != OutputFilename {
		t.Errorf("result = %+v", result)
	}
	if len(percents) == 0 || percents[0] != 0 || percents[len(percents)-1] != 100 {
		t.Errorf("progress = %v, want 0 ... 100", percents)
	}
	for i := 1; i < len(percents); i++ {
		if percents[i] < percents[i-1] {
			t.Errorf("progress not monotonic: %v", percents)
			break
		}
	}

	kind, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	if kind != websocket.BinaryMessage || len(data) != result.Size || !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Errorf("document frame: kind %d, %d bytes, want %d", kind, len(data), result.Size)
	}
}

func TestLinkSocketErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		kind int
		data []byte
		want string
	}{
		{name: "text frame", kind: websocket.TextMessage, data: []byte("hi"), want: msgMissingFile},
		{name: "not a pdf", kind: websocket.BinaryMessage, data: []byte("hello"), want: msgUnreadable},
		{
			name: "no problems",
			kind: websocket.BinaryMessage,
			data: pdftest.New().AddTextPage("Preface").Bytes(),
			want: msgNoProblems,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			s, _ := newTestServer(t, nil)
			conn := dialLink(t, s, "")
			if err := conn.WriteMessage(tt.kind, tt.data); err != nil {
				t.Fatalf("WriteMessage() error = %v", err)
			}

			for {
				var msg SocketMessage
				if err := conn.ReadJSON(&msg); err != nil {
					t.Fatalf("ReadJSON() error = %v", err)
				}
				if msg.Type == MessageProgress {
					continue
				}
				if msg.Type != MessageError || msg.Message != tt.want {
					t.Errorf("message = %+v, want error %q", msg, tt.want)
				}
				return
			}
		})
	}
}

func TestServeShutdown(t *testing.T) {
	t.Parallel()

	s, _ := newTestServer(t, func(c *config.Config) { c.Server.MaxConnections = 2 })

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(15 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}

func TestSocketMessageJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		percent int
		want    string
	}{
		{0, `{"type":"progress","percent":0}`},
		{50, `{"type":"progress","percent":50}`},
		{100, `{"type":"progress","percent":100}`},
	}
	for _, tt := range tests {
		b, err := json.Marshal(SocketMessage{Type: MessageProgress, Percent: tt.percent})
		if err != nil {
			t.Fatal(err)
		}
		if got := string(b); got != tt.want {
			t.Errorf("json = %s, want %s", got, tt.want)
		}
	}
}

// lockedBuffer is a bytes.Buffer safe for the server's goroutines
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestLinkSocketClientGone(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Boundary.SolutionsHeading = `^Solutions$`
	store, err := feedback.NewCSVStore(filepath.Join(t.TempDir(), "feedback.csv"))
	if err != nil {
		t.Fatal(err)
	}

	var logs lockedBuffer
	s, err := New(cfg, store, slog.New(slog.NewTextHandler(&logs, nil)))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	started := make(chan struct{})
	release := make(chan struct{})
	s.linkerOpts = append(s.linkerOpts, linker.WithOpener(func(data []byte) (pdf.Document, error) {
		close(started)
		<-release
		return pdf.OpenBytes(data)
	}))

	conn := dialLink(t, s, "")
	if err := conn.WriteMessage(websocket.BinaryMessage, textbook()); err != nil {
		t.Fatalf("WriteMessage() error = %v", err)
	}

	select {
	case <-started:
	case <-time.After(10 * time.Second):
		t.Fatal("link did not start")
	}
	conn.Close()
	time.Sleep(200 * time.Millisecond)
	close(release)

	deadline := time.Now().Add(10 * time.Second)
	for !strings.Contains(logs.String(), "context canceled") {
		if time.Now().After(deadline) {
			t.Fatalf("run was not cancelled after the client left; logs:\n%s", logs.String())
		}
		time.Sleep(20 * time.Millisecond)
	}
	if strings.Contains(logs.String(), "linked document") {
		t.Error("run completed after the client left")
	}
}
