package service

import (
	"context"
	"strconv"

	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
)

// MoveValidator 移动校验器（纯决策，不产生任何副作用）
//
// 校验顺序固定：边界 → 棋子ID格式 → 角色存在性 → 所有权。
// GM对任何棋子都有移动权限；ENEMY/NPC棋子只有GM能移动。
type MoveValidator struct {
	characterRepo repository.CharacterRepository
}

// NewMoveValidator 创建移动校验器
func NewMoveValidator(characterRepo repository.CharacterRepository) *MoveValidator {
	return &MoveValidator{characterRepo: characterRepo}
}

// Validate 校验一次移动，返回nil表示允许落子
func (v *MoveValidator) Validate(ctx context.Context, actor *Actor, req *MoveRequest) error {
	// 1. 边界校验（先于一切身份判断，GM也不能移出棋盘）
	if !models.InBounds(req.ToX, req.ToY) {
		return apperrors.Newf(apperrors.ErrOutOfBounds,
			"坐标(%d, %d)超出范围(%d-%d)", req.ToX, req.ToY, models.GridMin, models.GridMax)
	}

	switch req.TokenType {
	case models.TokenTypePlayer:
		return v.validatePlayerToken(ctx, actor, req.TokenID)
	case models.TokenTypeEnemy, models.TokenTypeNPC:
		// ENEMY/NPC棋子只有GM能移动
		if !actor.IsGameMaster() {
			return apperrors.Newf(apperrors.ErrNotTokenOwner,
				"用户%s无权移动%s棋子", actor.Username, req.TokenType)
		}
		return nil
	default:
		return apperrors.Newf(apperrors.ErrInvalidTokenType, "未知的棋子类型: %s", req.TokenType)
	}
}

// validatePlayerToken 校验PLAYER棋子：ID必须是角色ID，且角色归属于操作者（GM除外）
func (v *MoveValidator) validatePlayerToken(ctx context.Context, actor *Actor, tokenID string) error {
	// 2. 格式校验：PLAYER棋子ID必须能解析为角色ID
	characterID, err := strconv.ParseUint(tokenID, 10, 64)
	if err != nil {
		return apperrors.Newf(apperrors.ErrInvalidTokenID, "无效的角色ID格式: %s", tokenID)
	}

	// 3. 存在性校验（先于所有权：GM移动不存在的角色同样是错误）
	character, err := v.characterRepo.FindByID(ctx, uint(characterID))
	if err != nil {
		if err == repository.ErrCharacterNotFound {
			return apperrors.Newf(apperrors.ErrCharacterNotFound, "角色不存在: %s", tokenID)
		}
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	// 4. 所有权校验：GM可以移动任何棋子
	if actor.IsGameMaster() {
		return nil
	}

	if !character.IsOwnedBy(actor.UserID) {
		return apperrors.Newf(apperrors.ErrNotTokenOwner,
			"用户%s不拥有角色%s", actor.Username, tokenID)
	}

	return nil
}
