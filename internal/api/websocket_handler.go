package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/wfunc/arena-game/internal/middleware"
	ws "github.com/wfunc/arena-game/internal/websocket"
	"go.uber.org/zap"
)

// WebSocketHandler WebSocket处理器（实时网关的HTTP入口）
type WebSocketHandler struct {
	hub      *ws.Hub
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewWebSocketHandler 创建WebSocket处理器
func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{
		hub: hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// 在生产环境中应该检查Origin
				return true
			},
		},
		logger: logger,
	}
}

// GameWebSocket 游戏WebSocket连接（必须已通过JWT认证）
func (h *WebSocketHandler) GameWebSocket(c *gin.Context) {
	actor, ok := middleware.GetActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	// 升级为WebSocket连接
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket升级失败",
			zap.Uint("user_id", actor.UserID),
			zap.Error(err))
		return
	}

	// 创建客户端
	client := ws.NewClient(h.hub, conn, actor.UserID, actor.Username, actor.Role)

	// 注册客户端
	h.hub.Register(client)

	// 启动读写协程
	go client.WritePump()
	go client.ReadPump()

	h.logger.Info("WebSocket连接建立",
		zap.String("client_id", client.ID),
		zap.Uint("user_id", actor.UserID),
		zap.String("username", actor.Username))
}

// GetOnlineCount 获取在线人数
func (h *WebSocketHandler) GetOnlineCount(c *gin.Context) {
	count := h.hub.GetOnlineCount()
	users := h.hub.GetOnlineUsers()

	c.JSON(http.StatusOK, gin.H{
		"online_count": count,
		"online_users": users,
	})
}
