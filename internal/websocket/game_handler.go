package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/service"
	"go.uber.org/zap"
)

// GameMessageHandler WebSocket游戏消息处理器
//
// 实时路径上的失败策略：被拒绝的移动静默丢弃（只记日志，不广播、
// 不回错误帧），棋盘以下一次合法移动或REST全量同步为准。
type GameMessageHandler struct {
	hub       *Hub
	gameState service.GameStateService
	logger    *zap.Logger
}

// NewGameMessageHandler 创建游戏消息处理器
func NewGameMessageHandler(hub *Hub, gameState service.GameStateService, logger *zap.Logger) *GameMessageHandler {
	return &GameMessageHandler{
		hub:       hub,
		gameState: gameState,
		logger:    logger,
	}
}

// HandleClientMessage 处理客户端消息
func (h *GameMessageHandler) HandleClientMessage(client *Client, data []byte) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		h.logger.Error("解析消息失败",
			zap.String("client_id", client.ID),
			zap.Error(err))
		h.sendError(client, "消息格式错误")
		client.Close()
		return
	}

	// 验证消息类型不为空
	if msg.Type == "" {
		h.logger.Warn("收到空消息类型",
			zap.String("client_id", client.ID))
		h.sendError(client, "消息类型不能为空")
		client.Close()
		return
	}

	h.logger.Debug("收到WebSocket消息",
		zap.String("client_id", client.ID),
		zap.String("type", msg.Type),
		zap.String("username", client.Username))

	// 根据消息类型处理
	switch msg.Type {
	case MessageTypeMoveToken:
		h.handleMoveToken(client, &msg)

	case MessageTypeJoin:
		h.handleJoin(client)

	case MessageTypeLeave:
		h.handleLeave(client)

	case MessageTypeGameState:
		h.handleGetGameState(client)

	case MessageTypePing, MessageTypeHeartbeat:
		h.handlePing(client)

	case MessageTypePong:
		h.logger.Debug("收到pong", zap.String("client_id", client.ID))

	default:
		h.logger.Warn("未知消息类型",
			zap.String("client_id", client.ID),
			zap.String("type", msg.Type))
		h.sendError(client, "不支持的消息类型: "+msg.Type)
	}
}

// HandleClientDisconnect 连接断开视为离场
func (h *GameMessageHandler) HandleClientDisconnect(client *Client) {
	h.broadcastPresence(MessageTypePlayerLeft, client.Username)
}

// handleMoveToken 处理棋子移动指令
func (h *GameMessageHandler) handleMoveToken(client *Client, msg *Message) {
	var req service.MoveRequest
	if msg.Data == nil {
		h.sendError(client, "移动参数缺失")
		return
	}
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		h.sendError(client, "移动参数错误")
		return
	}

	h.logger.Info("收到移动指令",
		zap.String("username", client.Username),
		zap.String("tokenID", req.TokenID),
		zap.String("tokenType", req.TokenType),
		zap.Int("fromX", req.FromX),
		zap.Int("fromY", req.FromY),
		zap.Int("toX", req.ToX),
		zap.Int("toY", req.ToY))

	// 校验+落盘；成功时服务层自己广播token-moved
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := h.gameState.MoveToken(ctx, client.Actor(), &req); err != nil {
		// 实时路径：静默丢弃，不广播也不回错误帧。
		// 持久化失败是服务端故障，升级日志级别。
		if apperrors.IsStorageError(err) {
			h.logger.Error("移动落盘失败，已丢弃",
				zap.String("username", client.Username),
				zap.String("tokenID", req.TokenID),
				zap.Error(err))
			return
		}
		h.logger.Warn("移动被拒绝，已丢弃",
			zap.String("username", client.Username),
			zap.String("tokenID", req.TokenID),
			zap.Error(err))
		return
	}
}

// handleJoin 玩家进入共享世界
func (h *GameMessageHandler) handleJoin(client *Client) {
	h.logger.Info("玩家进入共享世界", zap.String("username", client.Username))
	h.broadcastPresence(MessageTypePlayerJoined, client.Username)
}

// handleLeave 玩家离开共享世界
func (h *GameMessageHandler) handleLeave(client *Client) {
	h.logger.Info("玩家离开共享世界", zap.String("username", client.Username))
	h.broadcastPresence(MessageTypePlayerLeft, client.Username)
}

// handleGetGameState 回发完整游戏状态（重连后同步）
func (h *GameMessageHandler) handleGetGameState(client *Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	state, err := h.gameState.GetFullState(ctx)
	if err != nil {
		h.logger.Error("获取游戏状态失败", zap.Error(err))
		h.sendError(client, "获取游戏状态失败")
		return
	}

	if err := client.SendMessage(MessageTypeGameState, state); err != nil {
		h.logger.Warn("回发游戏状态失败",
			zap.String("client_id", client.ID),
			zap.Error(err))
	}
}

// handlePing 心跳，仅回给发送方
func (h *GameMessageHandler) handlePing(client *Client) {
	pong := &Message{
		Type:      MessageTypePong,
		Timestamp: time.Now().UnixMilli(),
		Data:      json.RawMessage(fmt.Sprintf(`{"username":%q}`, client.Username)),
	}
	if err := h.hub.SendToClient(client.ID, pong); err != nil {
		h.logger.Debug("回发pong失败", zap.String("client_id", client.ID), zap.Error(err))
	}
}

// broadcastPresence 广播进出场事件
func (h *GameMessageHandler) broadcastPresence(eventType, username string) {
	now := time.Now().UnixMilli()
	data, _ := json.Marshal(map[string]interface{}{
		"username":  username,
		"timestamp": now,
	})
	h.hub.Broadcast(&Message{
		Type:      eventType,
		Data:      data,
		Timestamp: now,
	})
}

// sendError 发送错误消息
func (h *GameMessageHandler) sendError(client *Client, message string) {
	errorMsg := &Message{
		Type:      MessageTypeError,
		Timestamp: time.Now().UnixMilli(),
		Data:      json.RawMessage(fmt.Sprintf(`{"error":%q}`, message)),
	}
	h.hub.SendToClient(client.ID, errorMsg)
}
