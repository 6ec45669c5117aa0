package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wfunc/arena-game/internal/models"
	"gorm.io/gorm"
)

// ErrPositionNotFound 棋子位置不存在
var ErrPositionNotFound = errors.New("棋子位置不存在")

// TokenPositionRepository 棋子位置仓储接口
type TokenPositionRepository interface {
	BaseRepository
	Create(ctx context.Context, position *models.TokenPosition) error
	Update(ctx context.Context, position *models.TokenPosition) error
	FindByTokenID(ctx context.Context, tokenID string) (*models.TokenPosition, error)
	FindAll(ctx context.Context) ([]*models.TokenPosition, error)
	ExistsByTokenID(ctx context.Context, tokenID string) (bool, error)
	DeleteByTokenID(ctx context.Context, tokenID string) error
	DeleteAll(ctx context.Context) error
	Count(ctx context.Context) (int64, error)
}

// tokenPositionRepo 棋子位置仓储实现
type tokenPositionRepo struct {
	*BaseRepo
}

// NewTokenPositionRepository 创建棋子位置仓储
func NewTokenPositionRepository(db *gorm.DB) TokenPositionRepository {
	return &tokenPositionRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建棋子位置
func (r *tokenPositionRepo) Create(ctx context.Context, position *models.TokenPosition) error {
	if position.LastMoved.IsZero() {
		position.LastMoved = time.Now()
	}
	return r.db.WithContext(ctx).Create(position).Error
}

// Update 更新棋子位置
func (r *tokenPositionRepo) Update(ctx context.Context, position *models.TokenPosition) error {
	return r.db.WithContext(ctx).Save(position).Error
}

// FindByTokenID 根据棋子ID查找
func (r *tokenPositionRepo) FindByTokenID(ctx context.Context, tokenID string) (*models.TokenPosition, error) {
	var position models.TokenPosition
	err := r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		First(&position).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPositionNotFound
		}
		return nil, err
	}
	return &position, nil
}

// FindAll 查找所有棋子位置
func (r *tokenPositionRepo) FindAll(ctx context.Context) ([]*models.TokenPosition, error) {
	var positions []*models.TokenPosition
	err := r.db.WithContext(ctx).
		Order("token_id asc").
		Find(&positions).Error
	return positions, err
}

// ExistsByTokenID 判断棋子位置是否存在
func (r *tokenPositionRepo) ExistsByTokenID(ctx context.Context, tokenID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TokenPosition{}).
		Where("token_id = ?", tokenID).
		Count(&count).Error
	return count > 0, err
}

// DeleteByTokenID 删除指定棋子位置（不存在时为空操作）
func (r *tokenPositionRepo) DeleteByTokenID(ctx context.Context, tokenID string) error {
	return r.db.WithContext(ctx).
		Where("token_id = ?", tokenID).
		Delete(&models.TokenPosition{}).Error
}

// DeleteAll 删除所有棋子位置（换图/重置时调用，包含离线玩家的棋子）
func (r *tokenPositionRepo) DeleteAll(ctx context.Context) error {
	return r.db.WithContext(ctx).
		Where("1 = 1").
		Delete(&models.TokenPosition{}).Error
}

// Count 统计棋子位置数量
func (r *tokenPositionRepo) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.TokenPosition{}).
		Count(&count).Error
	return count, err
}

// WithTx 使用事务
func (r *tokenPositionRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &tokenPositionRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
