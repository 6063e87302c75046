package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"taskchat/conversation"
)

const writeWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

type eventType string

const (
	eventThinking     eventType = "thinking"
	eventCallingTool  eventType = "calling_tool"
	eventToolComplete eventType = "tool_complete"
	eventAnswer       eventType = "answer"
	eventError        eventType = "error"
)

// chatEvent is one frame of the turn stream sent to the client.
type chatEvent struct {
	Type eventType `json:"type"`
	Data any       `json:"data,omitempty"`
}

type wsMessage struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

// handleWS upgrades the connection and serves chat turns over it. Each
// incoming frame is one turn request; progress events stream back as the
// agent works, ending with an answer or error frame.
func (s *Server) handleWS(c *gin.Context) {
	userID := c.Param("user_id")
	if !validUserID(userID) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user_id"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer ws.Close()

	conn := &wsConn{ws: ws}
	for {
		_, raw, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			conn.sendEvent(eventError, gin.H{"code": string(conversation.CodeValidation), "message": "invalid message frame"})
			continue
		}

		obs := &wsObserver{conn: conn}
		resp, cerr := s.service.ProcessTurn(c.Request.Context(), conversation.TurnRequest{
			UserID:         userID,
			ConversationID: msg.ConversationID,
			Message:        msg.Message,
		}, obs)
		if cerr != nil {
			conn.sendEvent(eventError, gin.H{"code": string(cerr.Code), "message": cerr.Message})
			continue
		}
		conn.sendEvent(eventAnswer, resp)
	}
}

// wsConn serializes writes; the observer and the turn loop share the socket.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) sendEvent(t eventType, data any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	c.ws.WriteJSON(chatEvent{Type: t, Data: data})
}

// wsObserver streams agent progress events over the socket.
type wsObserver struct {
	conn *wsConn
}

func (o *wsObserver) Thinking() {
	o.conn.sendEvent(eventThinking, nil)
}

func (o *wsObserver) CallingTool(toolName string, params map[string]any) {
	o.conn.sendEvent(eventCallingTool, gin.H{"tool_name": toolName, "parameters": params})
}

func (o *wsObserver) ToolComplete(toolName string) {
	o.conn.sendEvent(eventToolComplete, gin.H{"tool_name": toolName})
}
