package controllers

import (
	"net/http"
	"sync"
	"time"

	"github.com/BerniceZTT/outreach_crm/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
)

// 세션 이벤트
const (
	SessionEventActive  = "session_active"
	SessionEventExpired = "session_expired"
)

// SessionEvent 웹소켓으로 보내는 세션 알림
type SessionEvent struct {
	Type      string     `json:"type"`
	Message   string     `json:"message,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (h *Handler) upgrader() *websocket.Upgrader {
	origins := h.Config.AllowedOrigins()
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			for _, allowed := range origins {
				if allowed == "*" || allowed == origin {
					return true
				}
			}
			return false
		},
	}
}

// SessionEvents 세션 만료 알림 채널. 주기적으로 세션을 확인하다가 만료되면
// session_expired 를 보내고 연결을 닫는다
func (h *Handler) SessionEvents(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = utils.BearerToken(c.GetHeader("Authorization"))
	}
	if token == "" {
		utils.HandleError(c, utils.NewAuthError("로그인이 필요합니다"))
		return
	}

	session, err := h.Sessions.CurrentUser(c.Request.Context(), token)
	if err != nil {
		utils.HandleError(c, err)
		return
	}
	if session == nil {
		utils.HandleError(c, utils.NewAuthError("세션이 만료되었습니다. 다시 로그인해주세요"))
		return
	}

	conn, err := h.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.Logger.Warn().Err(err).Str("ip", c.ClientIP()).Msg("웹소켓 업그레이드 실패")
		return
	}
	defer conn.Close()

	var writeMu sync.Mutex
	write := func(messageType int, payload interface{}) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if messageType == websocket.TextMessage {
			return conn.WriteJSON(payload)
		}
		data, _ := payload.([]byte)
		return conn.WriteMessage(messageType, data)
	}

	expiresAt := session.ExpiresAt
	if err := write(websocket.TextMessage, SessionEvent{Type: SessionEventActive, ExpiresAt: &expiresAt}); err != nil {
		return
	}

	utils.Logger.Info().Str("username", session.User.Username).Msg("세션 알림 연결")

	done := make(chan struct{})
	var closeOnce sync.Once
	finish := func() { closeOnce.Do(func() { close(done) }) }

	stop := h.Sessions.Watch(c.Request.Context(), token, func() {
		_ = write(websocket.TextMessage, SessionEvent{
			Type:    SessionEventExpired,
			Message: "세션이 만료되었습니다. 다시 로그인해주세요",
		})
		_ = write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, SessionEventExpired))
		finish()
	})
	defer stop()

	// 클라이언트 메시지는 쓰지 않고 연결 종료 감지에만 읽는다
	go func() {
		defer finish()
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			utils.Logger.Info().Str("username", session.User.Username).Msg("세션 알림 연결 종료")
			return
		case <-ticker.C:
			if err := write(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}
