package service

import (
	"context"
	"strconv"
	"testing"

	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CharacterServiceTestSuite 角色服务测试套件
type CharacterServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	services *Services
	player   *models.User
	gm       *Actor
}

func (suite *CharacterServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.services = NewServices(suite.db, DefaultConfig(), nil, zap.NewNop())

	playerUser, gmUser := repository.SeedTestUsers(suite.T(), suite.db)
	suite.player = playerUser
	suite.gm = &Actor{UserID: gmUser.ID, Username: gmUser.Username, Role: gmUser.Role}
}

func (suite *CharacterServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// 测试角色的增查改
func (suite *CharacterServiceTestSuite) TestCreateGetUpdate() {
	ctx := context.Background()

	character, err := suite.services.Character.CreateCharacter(ctx, &CreateCharacterRequest{
		Name:       "Doc Holliday",
		Occupation: "gambler",
		PlayerID:   &suite.player.ID,
	})
	suite.NoError(err)
	suite.NotZero(character.ID)

	got, err := suite.services.Character.GetCharacter(ctx, character.ID)
	suite.NoError(err)
	suite.Equal("Doc Holliday", got.Name)
	suite.True(got.IsOwnedBy(suite.player.ID))

	newName := "Doc"
	updated, err := suite.services.Character.UpdateCharacter(ctx, character.ID, &UpdateCharacterRequest{Name: &newName})
	suite.NoError(err)
	suite.Equal("Doc", updated.Name)
	// 未出现的字段不动
	suite.Equal("gambler", updated.Occupation)
}

// 测试获取不存在的角色
func (suite *CharacterServiceTestSuite) TestGetMissing() {
	_, err := suite.services.Character.GetCharacter(context.Background(), 4242)
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrCharacterNotFound))
}

// 测试按玩家列出角色
func (suite *CharacterServiceTestSuite) TestListByPlayer() {
	ctx := context.Background()

	for _, name := range []string{"Jane", "Tex Jr."} {
		_, err := suite.services.Character.CreateCharacter(ctx, &CreateCharacterRequest{
			Name:     name,
			PlayerID: &suite.player.ID,
		})
		suite.NoError(err)
	}
	_, err := suite.services.Character.CreateCharacter(ctx, &CreateCharacterRequest{Name: "Drifter", IsNPC: true})
	suite.NoError(err)

	mine, err := suite.services.Character.ListByPlayer(ctx, suite.player.ID)
	suite.NoError(err)
	suite.Len(mine, 2)

	all, err := suite.services.Character.ListCharacters(ctx)
	suite.NoError(err)
	suite.Len(all, 3)
}

// 测试删除角色连带移除它的棋子
func (suite *CharacterServiceTestSuite) TestDeleteRemovesToken() {
	ctx := context.Background()

	character, err := suite.services.Character.CreateCharacter(ctx, &CreateCharacterRequest{
		Name:     "Jane",
		PlayerID: &suite.player.ID,
	})
	suite.NoError(err)

	tokenID := strconv.FormatUint(uint64(character.ID), 10)
	_, err = suite.services.GameState.MoveToken(ctx, suite.gm, &MoveRequest{
		TokenID: tokenID, TokenType: models.TokenTypePlayer, ToX: 5, ToY: 5,
	})
	suite.NoError(err)

	suite.NoError(suite.services.Character.DeleteCharacter(ctx, character.ID))

	var count int64
	suite.db.Model(&models.TokenPosition{}).Where("token_id = ?", tokenID).Count(&count)
	suite.Equal(int64(0), count)

	_, err = suite.services.Character.GetCharacter(ctx, character.ID)
	suite.Error(err)
}

func TestCharacterServiceSuite(t *testing.T) {
	suite.Run(t, new(CharacterServiceTestSuite))
}
