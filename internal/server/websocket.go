package server

import (
	"bytes"
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pyhub-apps/pdflinker/pkg/linker"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to receive the uploaded document.
	readWait = 60 * time.Second
)

// Socket message types
const (
	MessageProgress = "progress"
	MessageResult   = "result"
	MessageError    = "error"
)

// SocketMessage is a JSON frame sent on /ws/link.
type SocketMessage struct {
	Type       string `json:"type"`
	Percent    int    `json:"percent"`
	Message    string `json:"message,omitempty"`
	RunID      string `json:"run_id,omitempty"`
	Filename   string `json:"filename,omitempty"`
	Pages      int    `json:"pages,omitempty"`
	Resolved   int    `json:"resolved,omitempty"`
	LinksAdded int    `json:"links_added,omitempty"`
	Skipped    int    `json:"skipped,omitempty"`
	Size       int    `json:"size,omitempty"`
}

// handleLinkSocket links one document per connection: the client sends the
// PDF as a binary message, the server answers with progress frames and then
// either a result frame followed by the linked PDF or an error frame.
func (s *Server) handleLinkSocket(w http.ResponseWriter, r *http.Request) {
	opts, err := s.requestOptions(r.URL.Query().Get("solutions_page"), r.URL.Query().Get("solutions_heading"))
	if err != nil {
		http.Error(w, msgInvalidOverride, http.StatusBadRequest)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(s.cfg.MaxUploadBytes())
	_ = conn.SetReadDeadline(time.Now().Add(readWait))

	kind, input, err := conn.ReadMessage()
	if err != nil {
		s.logger.Debug("websocket read failed", "error", err)
		return
	}
	if kind != websocket.BinaryMessage {
		_ = s.writeJSON(conn, SocketMessage{Type: MessageError, Message: msgMissingFile})
		return
	}

	_ = conn.SetReadDeadline(time.Time{})

	// A hijacked connection does not cancel r.Context; watch the socket instead.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	last := -1
	progress := func(percent int) {
		if percent == last {
			return
		}
		last = percent
		_ = s.writeJSON(conn, SocketMessage{Type: MessageProgress, Percent: percent})
	}

	var out bytes.Buffer
	result, err := linker.New(append(opts, linker.WithProgress(progress))...).Link(ctx, input, &out)
	if err != nil {
		_, msg := linkErrorStatus(err)
		s.logger.Info("websocket link failed", "run", result.RunID, "error", err)
		_ = s.writeJSON(conn, SocketMessage{Type: MessageError, Message: msg})
		return
	}

	if err := s.writeJSON(conn, SocketMessage{
		Type:       MessageResult,
		RunID:      result.RunID,
		Filename:   OutputFilename,
		Pages:      result.Pages,
		Resolved:   result.Resolved,
		LinksAdded: result.LinksAdded,
		Skipped:    result.Skipped,
		Size:       out.Len(),
	}); err != nil {
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.BinaryMessage, out.Bytes()); err != nil {
		s.logger.Debug("websocket write failed", "error", err)
		return
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (s *Server) writeJSON(conn *websocket.Conn, msg SocketMessage) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(msg); err != nil {
		s.logger.Debug("websocket write failed", "type", msg.Type, "error", err)
		return err
	}
	return nil
}
