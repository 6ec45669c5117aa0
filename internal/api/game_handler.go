package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/service"
)

// GameHandler 游戏状态处理器
//
// REST路径上的失败策略与实时路径相反：所有拒绝都带明确的
// 错误码和HTTP状态返回给调用方。
type GameHandler struct {
	gameState service.GameStateService
}

// NewGameHandler 创建游戏状态处理器
func NewGameHandler(gameState service.GameStateService) *GameHandler {
	return &GameHandler{
		gameState: gameState,
	}
}

// GetGameState 获取完整游戏状态（玩家进场和断线重连时同步用）
func (h *GameHandler) GetGameState(c *gin.Context) {
	state, err := h.gameState.GetFullState(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// ChangeMap 换图（仅GM）。清空所有棋子位置，包括离线玩家的棋子。
func (h *GameHandler) ChangeMap(c *gin.Context) {
	var req ChangeMapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	if err := h.gameState.ChangeMap(c.Request.Context(), req.MapID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: fmt.Sprintf("地图已切换至%s，所有棋子位置已清空", req.MapID),
	})
}

// ResetGameState 重置游戏状态（仅GM）。清空棋子、回合归1、地图不变。
func (h *GameHandler) ResetGameState(c *gin.Context) {
	if err := h.gameState.Reset(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "游戏状态已重置，所有棋子位置已清空，回合归1",
	})
}

// UpdateTurn 更新回合（仅GM）。无条件覆盖，阶段取值不做校验。
func (h *GameHandler) UpdateTurn(c *gin.Context) {
	var req UpdateTurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	if err := h.gameState.UpdateTurn(c.Request.Context(), req.TurnNumber, req.TurnPhase); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: fmt.Sprintf("回合已更新: %d (%s)", req.TurnNumber, req.TurnPhase),
	})
}

// RemoveToken 从棋盘移除棋子（仅GM）
func (h *GameHandler) RemoveToken(c *gin.Context) {
	tokenID := c.Param("tokenId")
	if tokenID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "棋子ID不能为空",
		})
		return
	}

	if err := h.gameState.RemoveToken(c.Request.Context(), tokenID); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: fmt.Sprintf("棋子%s已移除", tokenID),
	})
}

// respondError 按错误码映射HTTP状态返回
func respondError(c *gin.Context, err error) {
	if appErr, ok := err.(*apperrors.AppError); ok {
		c.JSON(appErr.HTTPStatus(), ErrorResponse{
			Code:    fmt.Sprintf("E%d", appErr.Code),
			Message: appErr.Message,
			Details: appErr.Details,
		})
		return
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Code:    "INTERNAL_ERROR",
		Message: err.Error(),
	})
}
