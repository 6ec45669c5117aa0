package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/wfunc/arena-game/internal/models"
	"gorm.io/gorm"
)

// TokenPositionRepoTestSuite 棋子位置仓储测试套件
type TokenPositionRepoTestSuite struct {
	suite.Suite
	db   *gorm.DB
	repo TokenPositionRepository
	ctx  context.Context
}

func (s *TokenPositionRepoTestSuite) SetupTest() {
	s.db = SetupTestDB()
	s.repo = NewTokenPositionRepository(s.db)
	s.ctx = context.Background()

	// 棋子位置挂在单例状态行下
	_, err := NewGameStateRepository(s.db).GetOrCreate(s.ctx)
	s.Require().NoError(err)
}

func (s *TokenPositionRepoTestSuite) TearDownTest() {
	CleanupTestDB(s.db)
}

// TestCreateAndFind 创建后可按棋子ID查回
func (s *TokenPositionRepoTestSuite) TestCreateAndFind() {
	pos := CreateTestPosition("1", models.TokenTypePlayer, 42, 17, "tex")
	s.Require().NoError(s.repo.Create(s.ctx, pos))

	found, err := s.repo.FindByTokenID(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(42, found.GridX)
	s.Equal(17, found.GridY)
	s.Equal(models.TokenTypePlayer, found.TokenType)
	s.Equal("tex", found.LastMovedBy)
	s.False(found.LastMoved.IsZero())
}

// TestFindMissing 查询不存在的棋子返回哨兵错误
func (s *TokenPositionRepoTestSuite) TestFindMissing() {
	_, err := s.repo.FindByTokenID(s.ctx, "no-such-token")
	s.ErrorIs(err, ErrPositionNotFound)
}

// TestTokenIDUnique 同一棋子ID不允许两行
func (s *TokenPositionRepoTestSuite) TestTokenIDUnique() {
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("1", models.TokenTypePlayer, 1, 1, "tex")))
	err := s.repo.Create(s.ctx, CreateTestPosition("1", models.TokenTypePlayer, 2, 2, "tex"))
	s.Error(err)
}

// TestUpdate 更新保留单行并覆盖坐标
func (s *TokenPositionRepoTestSuite) TestUpdate() {
	pos := CreateTestPosition("1", models.TokenTypePlayer, 1, 1, "tex")
	s.Require().NoError(s.repo.Create(s.ctx, pos))

	pos.GridX = 99
	pos.GridY = 100
	pos.LastMovedBy = "marshal"
	s.Require().NoError(s.repo.Update(s.ctx, pos))

	found, err := s.repo.FindByTokenID(s.ctx, "1")
	s.Require().NoError(err)
	s.Equal(99, found.GridX)
	s.Equal(100, found.GridY)
	s.Equal("marshal", found.LastMovedBy)

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

// TestFindAll 按棋子ID排序返回全部位置
func (s *TokenPositionRepoTestSuite) TestFindAll() {
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("c", models.TokenTypeNPC, 3, 3, "marshal")))
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("a", models.TokenTypePlayer, 1, 1, "tex")))
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("b", models.TokenTypeEnemy, 2, 2, "marshal")))

	positions, err := s.repo.FindAll(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(positions, 3)
	s.Equal("a", positions[0].TokenID)
	s.Equal("b", positions[1].TokenID)
	s.Equal("c", positions[2].TokenID)
}

// TestExistsByTokenID 存在性判断
func (s *TokenPositionRepoTestSuite) TestExistsByTokenID() {
	exists, err := s.repo.ExistsByTokenID(s.ctx, "1")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("1", models.TokenTypePlayer, 1, 1, "tex")))

	exists, err = s.repo.ExistsByTokenID(s.ctx, "1")
	s.Require().NoError(err)
	s.True(exists)
}

// TestDeleteByTokenID 删除幂等：不存在时也不报错
func (s *TokenPositionRepoTestSuite) TestDeleteByTokenID() {
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("1", models.TokenTypePlayer, 1, 1, "tex")))

	s.Require().NoError(s.repo.DeleteByTokenID(s.ctx, "1"))
	_, err := s.repo.FindByTokenID(s.ctx, "1")
	s.ErrorIs(err, ErrPositionNotFound)

	// 再删一次应当静默成功
	s.Require().NoError(s.repo.DeleteByTokenID(s.ctx, "1"))
}

// TestDeleteAll 清空所有棋子位置
func (s *TokenPositionRepoTestSuite) TestDeleteAll() {
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("1", models.TokenTypePlayer, 1, 1, "tex")))
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("2", models.TokenTypePlayer, 2, 2, "sam")))
	s.Require().NoError(s.repo.Create(s.ctx, CreateTestPosition("goblin-1", models.TokenTypeEnemy, 3, 3, "marshal")))

	s.Require().NoError(s.repo.DeleteAll(s.ctx))

	count, err := s.repo.Count(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(0), count)
}

func TestTokenPositionRepoTestSuite(t *testing.T) {
	suite.Run(t, new(TokenPositionRepoTestSuite))
}
