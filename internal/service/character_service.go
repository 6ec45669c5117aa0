package service

import (
	"context"
	"strconv"

	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
	"go.uber.org/zap"
)

// characterService 角色服务实现（所有权目录）
type characterService struct {
	characterRepo repository.CharacterRepository
	gameState     GameStateService
	log           *zap.Logger
}

// NewCharacterService 创建角色服务
func NewCharacterService(
	characterRepo repository.CharacterRepository,
	gameState GameStateService,
	log *zap.Logger,
) CharacterService {
	return &characterService{
		characterRepo: characterRepo,
		gameState:     gameState,
		log:           log,
	}
}

// CreateCharacter 创建角色
func (s *characterService) CreateCharacter(ctx context.Context, req *CreateCharacterRequest) (*models.Character, error) {
	character := &models.Character{
		Name:       req.Name,
		Occupation: req.Occupation,
		PlayerID:   req.PlayerID,
		IsNPC:      req.IsNPC,
		ImageURL:   req.ImageURL,
		Notes:      req.Notes,
		Attributes: req.Attributes,
	}

	if err := s.characterRepo.Create(ctx, character); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}

	s.log.Info("Character created",
		zap.Uint("characterID", character.ID),
		zap.String("name", character.Name))
	return character, nil
}

// GetCharacter 获取角色
func (s *characterService) GetCharacter(ctx context.Context, id uint) (*models.Character, error) {
	character, err := s.characterRepo.FindByID(ctx, id)
	if err != nil {
		if err == repository.ErrCharacterNotFound {
			return nil, apperrors.Newf(apperrors.ErrCharacterNotFound, "角色不存在: %d", id)
		}
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return character, nil
}

// ListCharacters 列出所有角色
func (s *characterService) ListCharacters(ctx context.Context) ([]*models.Character, error) {
	characters, err := s.characterRepo.FindAll(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return characters, nil
}

// ListByPlayer 列出指定玩家的角色
func (s *characterService) ListByPlayer(ctx context.Context, playerID uint) ([]*models.Character, error) {
	characters, err := s.characterRepo.FindByPlayerID(ctx, playerID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	return characters, nil
}

// UpdateCharacter 更新角色（只覆盖请求里出现的字段）
func (s *characterService) UpdateCharacter(ctx context.Context, id uint, req *UpdateCharacterRequest) (*models.Character, error) {
	character, err := s.GetCharacter(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		character.Name = *req.Name
	}
	if req.Occupation != nil {
		character.Occupation = *req.Occupation
	}
	if req.PlayerID != nil {
		character.PlayerID = req.PlayerID
	}
	if req.ImageURL != nil {
		character.ImageURL = *req.ImageURL
	}
	if req.Notes != nil {
		character.Notes = *req.Notes
	}
	if req.Attributes != nil {
		character.Attributes = req.Attributes
	}

	if err := s.characterRepo.Update(ctx, character); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}
	return character, nil
}

// DeleteCharacter 删除角色，同时把它的棋子从棋盘上移除
func (s *characterService) DeleteCharacter(ctx context.Context, id uint) error {
	if _, err := s.GetCharacter(ctx, id); err != nil {
		return err
	}

	if err := s.characterRepo.Delete(ctx, id); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseDelete)
	}

	// 角色的棋子ID就是角色ID的十进制串
	tokenID := strconv.FormatUint(uint64(id), 10)
	if err := s.gameState.RemoveToken(ctx, tokenID); err != nil {
		s.log.Warn("Failed to remove token for deleted character",
			zap.Uint("characterID", id), zap.Error(err))
	}

	s.log.Info("Character deleted", zap.Uint("characterID", id))
	return nil
}
