package service

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/logger"
	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// gameStateService 游戏状态服务实现
//
// 单一状态锁串行化"校验+落子"与换图/重置，保证棋子移动不可能
// 在并发清空之后幸存；同一棋子的并发移动按锁的获取顺序落盘，
// 后写覆盖先写。
type gameStateService struct {
	db            *gorm.DB
	stateRepo     repository.GameStateRepository
	positionRepo  repository.TokenPositionRepository
	characterRepo repository.CharacterRepository
	validator     *MoveValidator
	publisher     EventPublisher
	log           *zap.Logger

	mu sync.Mutex // 状态锁：保护所有写路径
}

// NewGameStateService 创建游戏状态服务
func NewGameStateService(
	db *gorm.DB,
	stateRepo repository.GameStateRepository,
	positionRepo repository.TokenPositionRepository,
	characterRepo repository.CharacterRepository,
	publisher EventPublisher,
	log *zap.Logger,
) GameStateService {
	return &gameStateService{
		db:            db,
		stateRepo:     stateRepo,
		positionRepo:  positionRepo,
		characterRepo: characterRepo,
		validator:     NewMoveValidator(characterRepo),
		publisher:     publisher,
		log:           log,
	}
}

// GetFullState 获取完整游戏状态（含所有棋子位置）
func (s *gameStateService) GetFullState(ctx context.Context) (*GameStateResponse, error) {
	state, err := s.stateRepo.FindWithPositions(ctx)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	positions := make([]TokenPositionDTO, 0, len(state.TokenPositions))
	for _, p := range state.TokenPositions {
		positions = append(positions, TokenPositionDTO{
			TokenID:     p.TokenID,
			TokenType:   p.TokenType,
			GridX:       p.GridX,
			GridY:       p.GridY,
			LastMovedBy: p.LastMovedBy,
			LastMoved:   p.LastMoved,
			CharacterID: p.CharacterID,
		})
	}

	return &GameStateResponse{
		TurnNumber:     state.TurnNumber,
		TurnPhase:      state.TurnPhase,
		CurrentMap:     state.CurrentMap,
		LastActivity:   state.LastActivity,
		TokenPositions: positions,
	}, nil
}

// MoveToken 校验并落子，成功后广播token-moved事件
//
// 校验与落子在同一临界区内完成，换图/重置不可能插入其间。
func (s *gameStateService) MoveToken(ctx context.Context, actor *Actor, req *MoveRequest) (*TokenMovedEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// 校验（纯决策，无副作用）
	if err := s.validator.Validate(ctx, actor, req); err != nil {
		s.log.Warn("Token move rejected",
			zap.String("tokenID", req.TokenID),
			zap.String("username", actor.Username),
			zap.Error(err))
		return nil, err
	}

	// 单例状态必须存在
	if _, err := s.stateRepo.GetOrCreate(ctx); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	// 按tokenId upsert：已有位置就地覆盖，否则新建
	if err := s.upsertPosition(ctx, actor, req); err != nil {
		return nil, err
	}

	if err := s.stateRepo.Touch(ctx); err != nil {
		s.log.Warn("Failed to touch last activity", zap.Error(err))
	}

	event := &TokenMovedEvent{
		TokenID:   req.TokenID,
		TokenType: req.TokenType,
		MovedBy:   actor.Username,
		GridX:     req.ToX,
		GridY:     req.ToY,
		Timestamp: time.Now().UnixMilli(),
	}

	logger.LogTokenMove(req.TokenID, req.TokenType, actor.Username, req.ToX, req.ToY)

	// 尽力而为广播（至多一次，落盘成功才会走到这里）
	if s.publisher != nil {
		s.publisher.PublishTokenMoved(event)
	}

	return event, nil
}

// upsertPosition 持久化棋子位置
func (s *gameStateService) upsertPosition(ctx context.Context, actor *Actor, req *MoveRequest) error {
	existing, err := s.positionRepo.FindByTokenID(ctx, req.TokenID)
	if err != nil && err != repository.ErrPositionNotFound {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	if existing != nil {
		existing.GridX = req.ToX
		existing.GridY = req.ToY
		existing.LastMovedBy = actor.Username
		existing.LastMoved = time.Now()
		if err := s.positionRepo.Update(ctx, existing); err != nil {
			return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
		}
		return nil
	}

	position := &models.TokenPosition{
		GameStateID: models.GameStateID,
		TokenID:     req.TokenID,
		TokenType:   req.TokenType,
		GridX:       req.ToX,
		GridY:       req.ToY,
		LastMovedBy: actor.Username,
		LastMoved:   time.Now(),
	}

	// PLAYER棋子回链角色；链接失败不阻断落子
	if req.TokenType == models.TokenTypePlayer {
		if characterID, err := strconv.ParseUint(req.TokenID, 10, 64); err == nil {
			if character, err := s.characterRepo.FindByID(ctx, uint(characterID)); err == nil {
				position.CharacterID = &character.ID
			}
		} else {
			s.log.Warn("Invalid character ID format for PLAYER token", zap.String("tokenID", req.TokenID))
		}
	}

	if err := s.positionRepo.Create(ctx, position); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseInsert)
	}
	return nil
}

// ChangeMap 换图：在一个事务里清空所有棋子位置（含离线玩家）并设置新地图
func (s *gameStateService) ChangeMap(ctx context.Context, mapID string) error {
	if strings.TrimSpace(mapID) == "" {
		return apperrors.New(apperrors.ErrEmptyMapID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stateRepo.GetOrCreate(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	cleared, _ := s.positionRepo.Count(ctx)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		positionRepo := s.positionRepo.WithTx(tx).(repository.TokenPositionRepository)
		stateRepo := s.stateRepo.WithTx(tx).(repository.GameStateRepository)

		if err := positionRepo.DeleteAll(ctx); err != nil {
			return err
		}
		return stateRepo.SetCurrentMap(ctx, &mapID)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	s.log.Info("Map changed, all token positions cleared",
		zap.String("mapID", mapID),
		zap.Int64("clearedTokens", cleared))

	return nil
}

// Reset 重置：清空所有棋子位置，回合数归1，当前地图保持不变
func (s *gameStateService) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.stateRepo.GetOrCreate(ctx); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		positionRepo := s.positionRepo.WithTx(tx).(repository.TokenPositionRepository)
		stateRepo := s.stateRepo.WithTx(tx).(repository.GameStateRepository)

		if err := positionRepo.DeleteAll(ctx); err != nil {
			return err
		}
		return stateRepo.UpdateTurn(ctx, 1, models.PhasePlayer)
	})
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrTransaction)
	}

	s.log.Info("Game state reset, turn back to 1")
	return nil
}

// UpdateTurn 无条件覆盖回合数和阶段（阶段仅作记录，不做状态机校验）
func (s *gameStateService) UpdateTurn(ctx context.Context, turnNumber int, turnPhase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.stateRepo.UpdateTurn(ctx, turnNumber, turnPhase); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseUpdate)
	}

	s.log.Debug("Turn updated",
		zap.Int("turnNumber", turnNumber),
		zap.String("turnPhase", turnPhase))
	return nil
}

// RemoveToken 从棋盘移除棋子（角色删除或离场时调用，不存在时为空操作）
func (s *gameStateService) RemoveToken(ctx context.Context, tokenID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exists, err := s.positionRepo.ExistsByTokenID(ctx, tokenID)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseQuery)
	}
	if !exists {
		return nil
	}

	if err := s.positionRepo.DeleteByTokenID(ctx, tokenID); err != nil {
		return apperrors.Wrap(err, apperrors.ErrDatabaseDelete)
	}

	if err := s.stateRepo.Touch(ctx); err != nil {
		s.log.Warn("Failed to touch last activity", zap.Error(err))
	}

	s.log.Info("Token removed", zap.String("tokenID", tokenID))
	return nil
}
