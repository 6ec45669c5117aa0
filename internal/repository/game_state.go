package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wfunc/arena-game/internal/models"
	"gorm.io/gorm"
)

// GameStateRepository 游戏状态仓储接口（单例聚合根）
type GameStateRepository interface {
	BaseRepository
	// GetOrCreate 获取单例游戏状态，不存在时用默认值创建（并发安全，永远只有一行）
	GetOrCreate(ctx context.Context) (*models.GameState, error)
	// FindWithPositions 获取游戏状态及所有棋子位置
	FindWithPositions(ctx context.Context) (*models.GameState, error)
	// UpdateTurn 无条件覆盖回合数和阶段
	UpdateTurn(ctx context.Context, turnNumber int, turnPhase string) error
	// SetCurrentMap 设置当前地图
	SetCurrentMap(ctx context.Context, mapID *string) error
	// Touch 更新最后活动时间
	Touch(ctx context.Context) error
}

// gameStateRepo 游戏状态仓储实现
type gameStateRepo struct {
	*BaseRepo
}

// createMu 序列化单例创建，避免并发首次访问产生两行
var createMu sync.Mutex

// NewGameStateRepository 创建游戏状态仓储
func NewGameStateRepository(db *gorm.DB) GameStateRepository {
	return &gameStateRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// GetOrCreate 获取单例游戏状态，不存在时创建
func (r *gameStateRepo) GetOrCreate(ctx context.Context) (*models.GameState, error) {
	var state models.GameState
	err := r.db.WithContext(ctx).First(&state, models.GameStateID).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 创建路径：加锁后二次检查，固定ID保证数据库层面也只有一行
	createMu.Lock()
	defer createMu.Unlock()

	err = r.db.WithContext(ctx).First(&state, models.GameStateID).Error
	if err == nil {
		return &state, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	state = models.GameState{
		ID:           models.GameStateID,
		TurnNumber:   1,
		TurnPhase:    models.PhasePlayer,
		CurrentMap:   nil,
		LastActivity: time.Now(),
	}

	if err := r.db.WithContext(ctx).Create(&state).Error; err != nil {
		return nil, err
	}

	return &state, nil
}

// FindWithPositions 获取游戏状态及所有棋子位置
func (r *gameStateRepo) FindWithPositions(ctx context.Context) (*models.GameState, error) {
	if _, err := r.GetOrCreate(ctx); err != nil {
		return nil, err
	}

	var state models.GameState
	err := r.db.WithContext(ctx).
		Preload("TokenPositions").
		First(&state, models.GameStateID).Error
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// UpdateTurn 无条件覆盖回合数和阶段（阶段仅作记录，不校验取值）
func (r *gameStateRepo) UpdateTurn(ctx context.Context, turnNumber int, turnPhase string) error {
	if _, err := r.GetOrCreate(ctx); err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&models.GameState{}).
		Where("id = ?", models.GameStateID).
		Updates(map[string]interface{}{
			"turn_number":   turnNumber,
			"turn_phase":    turnPhase,
			"last_activity": time.Now(),
		}).Error
}

// SetCurrentMap 设置当前地图
func (r *gameStateRepo) SetCurrentMap(ctx context.Context, mapID *string) error {
	return r.db.WithContext(ctx).
		Model(&models.GameState{}).
		Where("id = ?", models.GameStateID).
		Updates(map[string]interface{}{
			"current_map":   mapID,
			"last_activity": time.Now(),
		}).Error
}

// Touch 更新最后活动时间
func (r *gameStateRepo) Touch(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Model(&models.GameState{}).
		Where("id = ?", models.GameStateID).
		Update("last_activity", time.Now()).Error
}

// WithTx 使用事务
func (r *gameStateRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &gameStateRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
