package repository

import (
	"context"
	"errors"

	"github.com/wfunc/arena-game/internal/models"
	"gorm.io/gorm"
)

// ErrCharacterNotFound 角色不存在
var ErrCharacterNotFound = errors.New("角色不存在")

// CharacterRepository 角色仓储接口（棋子归属目录）
type CharacterRepository interface {
	BaseRepository
	Create(ctx context.Context, character *models.Character) error
	Update(ctx context.Context, character *models.Character) error
	FindByID(ctx context.Context, id uint) (*models.Character, error)
	FindByPlayerID(ctx context.Context, playerID uint) ([]*models.Character, error)
	FindAll(ctx context.Context) ([]*models.Character, error)
	Delete(ctx context.Context, id uint) error
}

// characterRepo 角色仓储实现
type characterRepo struct {
	*BaseRepo
}

// NewCharacterRepository 创建角色仓储
func NewCharacterRepository(db *gorm.DB) CharacterRepository {
	return &characterRepo{
		BaseRepo: NewBaseRepo(db),
	}
}

// Create 创建角色
func (r *characterRepo) Create(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Create(character).Error
}

// Update 更新角色
func (r *characterRepo) Update(ctx context.Context, character *models.Character) error {
	return r.db.WithContext(ctx).Save(character).Error
}

// FindByID 根据ID查找
func (r *characterRepo) FindByID(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	err := r.db.WithContext(ctx).
		Preload("Player").
		First(&character, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, err
	}
	return &character, nil
}

// FindByPlayerID 根据拥有者查找
func (r *characterRepo) FindByPlayerID(ctx context.Context, playerID uint) ([]*models.Character, error) {
	var characters []*models.Character
	err := r.db.WithContext(ctx).
		Where("player_id = ?", playerID).
		Order("created_at asc").
		Find(&characters).Error
	return characters, err
}

// FindAll 查找所有角色
func (r *characterRepo) FindAll(ctx context.Context) ([]*models.Character, error) {
	var characters []*models.Character
	err := r.db.WithContext(ctx).
		Order("created_at asc").
		Find(&characters).Error
	return characters, err
}

// Delete 删除角色
func (r *characterRepo) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Character{}, id).Error
}

// WithTx 使用事务
func (r *characterRepo) WithTx(tx *gorm.DB) BaseRepository {
	return &characterRepo{
		BaseRepo: &BaseRepo{db: tx},
	}
}
