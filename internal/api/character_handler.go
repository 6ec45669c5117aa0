package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/arena-game/internal/middleware"
	"github.com/wfunc/arena-game/internal/service"
)

// CharacterHandler 角色处理器（所有权目录的读写入口）
type CharacterHandler struct {
	characterService service.CharacterService
}

// NewCharacterHandler 创建角色处理器
func NewCharacterHandler(characterService service.CharacterService) *CharacterHandler {
	return &CharacterHandler{
		characterService: characterService,
	}
}

// CreateCharacter 创建角色（仅GM）
func (h *CharacterHandler) CreateCharacter(c *gin.Context) {
	var req service.CreateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	character, err := h.characterService.CreateCharacter(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}

// GetCharacter 获取角色
func (h *CharacterHandler) GetCharacter(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}

	character, err := h.characterService.GetCharacter(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}

// ListCharacters 列出角色；?mine=true时只列出当前用户自己的
func (h *CharacterHandler) ListCharacters(c *gin.Context) {
	if c.Query("mine") == "true" {
		userID, _ := middleware.GetUserID(c)
		characters, err := h.characterService.ListByPlayer(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, characters)
		return
	}

	characters, err := h.characterService.ListCharacters(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, characters)
}

// UpdateCharacter 更新角色（仅GM）
func (h *CharacterHandler) UpdateCharacter(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}

	var req service.UpdateCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	character, err := h.characterService.UpdateCharacter(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, character)
}

// DeleteCharacter 删除角色（仅GM），连带移除它在棋盘上的棋子
func (h *CharacterHandler) DeleteCharacter(c *gin.Context) {
	id, err := parseIDParam(c)
	if err != nil {
		return
	}

	if err := h.characterService.DeleteCharacter(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "角色已删除",
	})
}

// parseIDParam 解析路径里的角色ID，失败时已写好响应
func parseIDParam(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "无效的角色ID",
		})
		return 0, err
	}
	return uint(id), nil
}
