package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/xhad/citedoc/internal/api"
	"github.com/xhad/citedoc/internal/models"
	"github.com/xhad/citedoc/pkg/orchestrator"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are enforced by the CORS config for browsers
	},
}

// wsConn serializes writes; gorilla connections allow one writer at a time.
// busy is set while a generation attempt runs on the connection.
type wsConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	busy   atomic.Bool
	logger *zap.Logger
}

func (w *wsConn) send(msgType string, data any) {
	raw, err := json.Marshal(data)
	if err != nil {
		w.logger.Error("error encoding message", zap.String("type", msgType), zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.WriteJSON(api.Message{Type: msgType, Data: raw}); err != nil {
		w.logger.Warn("error sending message", zap.String("type", msgType), zap.Error(err))
	}
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ws := &wsConn{conn: conn, logger: s.logger}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	var sessions sync.WaitGroup
	defer sessions.Wait()

	for {
		var msg api.Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("error reading message", zap.Error(err))
			}
			cancel()
			return
		}

		if msg.Type != api.MessageGenerate {
			ws.send(api.MessageError, api.ErrorResponse{Error: "unknown message type: " + msg.Type})
			continue
		}

		var session api.GenerateSession
		if err := json.Unmarshal(msg.Data, &session); err != nil {
			ws.send(api.MessageError, api.ErrorResponse{Error: "invalid generate message"})
			continue
		}

		if !ws.busy.CompareAndSwap(false, true) {
			ws.send(api.MessageError, api.ErrorResponse{Error: orchestrator.ErrAttemptInProgress.Error()})
			continue
		}

		sessions.Add(1)
		go func() {
			defer sessions.Done()
			defer ws.busy.Store(false)
			s.runSession(ctx, ws, session)
		}()
	}
}

// runSession runs one orchestrated attempt against the in-process pipeline
// and streams its progress to the client.
func (s *Server) runSession(ctx context.Context, ws *wsConn, session api.GenerateSession) {
	format, err := models.ParseFormat(session.Format)
	if err != nil {
		ws.send(api.MessageError, api.ErrorResponse{Error: err.Error()})
		return
	}

	orch, err := orchestrator.NewWithConfig(orchestrator.OrchestratorConfig{
		Collaborator: s.pipeline,
		Logger:       s.logger,
		OnProgress: func(p orchestrator.Progress) {
			switch p.State {
			case orchestrator.Failed, orchestrator.Done:
				return
			}
			ws.send(api.MessageProgress, api.Progress{
				State:    p.State.String(),
				Progress: p.Fraction,
				Message:  p.Message,
			})
		},
	})
	if err != nil {
		ws.send(api.MessageError, api.ErrorResponse{Error: err.Error()})
		return
	}

	for _, f := range session.Files {
		orch.AddFile(f.Source())
	}
	for _, link := range session.Links {
		if err := orch.AddLink(link); err != nil {
			ws.send(api.MessageError, api.ErrorResponse{Error: err.Error()})
			return
		}
	}

	ws.send(api.MessageStatus, api.Status{State: orchestrator.Idle.String(), Message: "Generation started"})

	artifact, err := orch.Generate(ctx, format, session.Instruction)
	if err != nil {
		_, msg := statusFor(err)
		s.logger.Warn("websocket generation failed", zap.Error(err))
		ws.send(api.MessageError, api.ErrorResponse{Error: msg})
		return
	}

	ws.send(api.MessageResult, api.Result{
		Filename:    artifact.Filename,
		ContentType: artifact.ContentType,
		Content:     artifact.Data,
	})
}
