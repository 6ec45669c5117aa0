package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	apperrors "github.com/wfunc/arena-game/internal/errors"
	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// eventRecorder 记录广播事件的测试替身
type eventRecorder struct {
	mu     sync.Mutex
	events []*TokenMovedEvent
}

func (r *eventRecorder) PublishTokenMoved(event *TokenMovedEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *eventRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// GameStateServiceTestSuite 游戏状态服务测试套件
type GameStateServiceTestSuite struct {
	suite.Suite
	db       *gorm.DB
	svc      GameStateService
	recorder *eventRecorder

	player    *Actor
	gm        *Actor
	character *models.Character // 归属于player的角色
	tokenID   string            // character的棋子ID
}

func (suite *GameStateServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()
	suite.recorder = &eventRecorder{}

	playerUser, gmUser := repository.SeedTestUsers(suite.T(), suite.db)
	suite.player = &Actor{UserID: playerUser.ID, Username: playerUser.Username, Role: playerUser.Role}
	suite.gm = &Actor{UserID: gmUser.ID, Username: gmUser.Username, Role: gmUser.Role}

	suite.character = repository.SeedTestCharacter(suite.T(), suite.db, playerUser.ID, "Doc Holliday")
	suite.tokenID = strconv.FormatUint(uint64(suite.character.ID), 10)

	log := zap.NewNop()
	suite.svc = NewGameStateService(
		suite.db,
		repository.NewGameStateRepository(suite.db),
		repository.NewTokenPositionRepository(suite.db),
		repository.NewCharacterRepository(suite.db),
		suite.recorder,
		log,
	)
}

func (suite *GameStateServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

// move 构造合法移动请求
func (suite *GameStateServiceTestSuite) move(tokenID, tokenType string, x, y int) *MoveRequest {
	return &MoveRequest{TokenID: tokenID, TokenType: tokenType, ToX: x, ToY: y}
}

func (suite *GameStateServiceTestSuite) positionCount() int64 {
	var count int64
	suite.db.Model(&models.TokenPosition{}).Count(&count)
	return count
}

// 测试首次访问创建单例状态
func (suite *GameStateServiceTestSuite) TestGetFullStateCreatesSingleton() {
	ctx := context.Background()

	state, err := suite.svc.GetFullState(ctx)
	suite.NoError(err)
	suite.Equal(1, state.TurnNumber)
	suite.Equal(models.PhasePlayer, state.TurnPhase)
	suite.Nil(state.CurrentMap)
	suite.Empty(state.TokenPositions)

	// 重复访问不会产生第二行
	_, err = suite.svc.GetFullState(ctx)
	suite.NoError(err)

	var count int64
	suite.db.Model(&models.GameState{}).Count(&count)
	suite.Equal(int64(1), count)
}

// 测试玩家移动自己的棋子
func (suite *GameStateServiceTestSuite) TestMoveOwnToken() {
	ctx := context.Background()

	event, err := suite.svc.MoveToken(ctx, suite.player, suite.move(suite.tokenID, models.TokenTypePlayer, 10, 12))
	suite.NoError(err)
	suite.NotNil(event)
	suite.Equal(suite.tokenID, event.TokenID)
	suite.Equal(suite.player.Username, event.MovedBy)
	suite.Equal(10, event.GridX)
	suite.Equal(12, event.GridY)
	suite.Positive(event.Timestamp)

	// 落盘并回链角色
	var position models.TokenPosition
	suite.NoError(suite.db.Where("token_id = ?", suite.tokenID).First(&position).Error)
	suite.Equal(10, position.GridX)
	suite.Equal(12, position.GridY)
	suite.Equal(suite.player.Username, position.LastMovedBy)
	suite.NotNil(position.CharacterID)
	suite.Equal(suite.character.ID, *position.CharacterID)

	// 广播了一次
	suite.Equal(1, suite.recorder.count())
}

// 测试同一棋子重复移动是覆盖而不是新增
func (suite *GameStateServiceTestSuite) TestMoveTokenUpsert() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.player, suite.move(suite.tokenID, models.TokenTypePlayer, 1, 2))
	suite.NoError(err)
	_, err = suite.svc.MoveToken(ctx, suite.gm, suite.move(suite.tokenID, models.TokenTypePlayer, 5, 6))
	suite.NoError(err)

	suite.Equal(int64(1), suite.positionCount())

	var position models.TokenPosition
	suite.NoError(suite.db.Where("token_id = ?", suite.tokenID).First(&position).Error)
	suite.Equal(5, position.GridX)
	suite.Equal(6, position.GridY)
	suite.Equal(suite.gm.Username, position.LastMovedBy)
}

// 测试越界移动被拒绝且不产生任何副作用
func (suite *GameStateServiceTestSuite) TestMoveOutOfBounds() {
	ctx := context.Background()

	for _, coords := range [][2]int{{200, 5}, {-1, 5}, {5, 200}, {5, -1}} {
		_, err := suite.svc.MoveToken(ctx, suite.gm, suite.move(suite.tokenID, models.TokenTypePlayer, coords[0], coords[1]))
		suite.Error(err)
		suite.True(apperrors.Is(err, apperrors.ErrOutOfBounds))
	}

	suite.Equal(int64(0), suite.positionCount())
	suite.Equal(0, suite.recorder.count())
}

// 测试边界角点恰好合法
func (suite *GameStateServiceTestSuite) TestMoveBoundaryCorners() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.player, suite.move(suite.tokenID, models.TokenTypePlayer, 0, 0))
	suite.NoError(err)
	_, err = suite.svc.MoveToken(ctx, suite.player, suite.move(suite.tokenID, models.TokenTypePlayer, 199, 199))
	suite.NoError(err)
}

// 测试玩家不能移动别人的棋子
func (suite *GameStateServiceTestSuite) TestMoveUnownedTokenRejected() {
	ctx := context.Background()

	intruder := &Actor{UserID: suite.player.UserID + 100, Username: "stranger", Role: models.RolePlayer}
	_, err := suite.svc.MoveToken(ctx, intruder, suite.move(suite.tokenID, models.TokenTypePlayer, 3, 3))
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrNotTokenOwner))
	suite.Equal(int64(0), suite.positionCount())
}

// 测试GM可以移动任何棋子
func (suite *GameStateServiceTestSuite) TestGMMovesAnyToken() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.gm, suite.move(suite.tokenID, models.TokenTypePlayer, 7, 7))
	suite.NoError(err)

	_, err = suite.svc.MoveToken(ctx, suite.gm, suite.move("bandit-1", models.TokenTypeEnemy, 20, 30))
	suite.NoError(err)

	_, err = suite.svc.MoveToken(ctx, suite.gm, suite.move("barkeep", models.TokenTypeNPC, 40, 50))
	suite.NoError(err)

	suite.Equal(int64(3), suite.positionCount())
}

// 测试玩家不能移动ENEMY/NPC棋子
func (suite *GameStateServiceTestSuite) TestEnemyTokenPlayerRejected() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.player, suite.move("bandit-1", models.TokenTypeEnemy, 20, 30))
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrNotTokenOwner))

	_, err = suite.svc.MoveToken(ctx, suite.player, suite.move("barkeep", models.TokenTypeNPC, 20, 30))
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrNotTokenOwner))
}

// 测试PLAYER棋子ID格式错误
func (suite *GameStateServiceTestSuite) TestInvalidPlayerTokenID() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.gm, suite.move("not-a-number", models.TokenTypePlayer, 3, 3))
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidTokenID))
}

// 测试未知角色
func (suite *GameStateServiceTestSuite) TestUnknownCharacterRejected() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.gm, suite.move("99999", models.TokenTypePlayer, 3, 3))
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrCharacterNotFound))
}

// 测试未知棋子类型
func (suite *GameStateServiceTestSuite) TestInvalidTokenType() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.gm, suite.move("x", "MOUNT", 3, 3))
	suite.Error(err)
	suite.True(apperrors.Is(err, apperrors.ErrInvalidTokenType))
}

// 测试换图清空所有棋子位置（包括离线玩家的棋子）
func (suite *GameStateServiceTestSuite) TestChangeMapClearsAllPositions() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.player, suite.move(suite.tokenID, models.TokenTypePlayer, 1, 1))
	suite.NoError(err)
	_, err = suite.svc.MoveToken(ctx, suite.gm, suite.move("bandit-1", models.TokenTypeEnemy, 2, 2))
	suite.NoError(err)

	// 离线玩家的棋子直接落库，换图后同样必须消失
	offline := repository.CreateTestPosition("offline-7", models.TokenTypeEnemy, 9, 9, "ghost")
	suite.NoError(suite.db.Create(offline).Error)
	suite.Equal(int64(3), suite.positionCount())

	suite.NoError(suite.svc.ChangeMap(ctx, "boomtown"))

	suite.Equal(int64(0), suite.positionCount())

	state, err := suite.svc.GetFullState(ctx)
	suite.NoError(err)
	suite.NotNil(state.CurrentMap)
	suite.Equal("boomtown", *state.CurrentMap)
	// 换图不动回合
	suite.Equal(1, state.TurnNumber)
}

// 测试空地图ID被拒绝
func (suite *GameStateServiceTestSuite) TestChangeMapBlankRejected() {
	ctx := context.Background()

	for _, mapID := range []string{"", "   ", "\t"} {
		err := suite.svc.ChangeMap(ctx, mapID)
		suite.Error(err)
		suite.True(apperrors.Is(err, apperrors.ErrEmptyMapID))
	}
}

// 测试重置清空棋子、回合归1、地图保持
func (suite *GameStateServiceTestSuite) TestResetKeepsMap() {
	ctx := context.Background()

	suite.NoError(suite.svc.ChangeMap(ctx, "canyon"))
	suite.NoError(suite.svc.UpdateTurn(ctx, 7, models.PhaseEnemy))

	_, err := suite.svc.MoveToken(ctx, suite.player, suite.move(suite.tokenID, models.TokenTypePlayer, 4, 4))
	suite.NoError(err)

	suite.NoError(suite.svc.Reset(ctx))

	state, err := suite.svc.GetFullState(ctx)
	suite.NoError(err)
	suite.Equal(int64(0), suite.positionCount())
	suite.Equal(1, state.TurnNumber)
	suite.Equal(models.PhasePlayer, state.TurnPhase)
	suite.NotNil(state.CurrentMap)
	suite.Equal("canyon", *state.CurrentMap)
}

// 测试回合更新无条件覆盖
func (suite *GameStateServiceTestSuite) TestUpdateTurn() {
	ctx := context.Background()

	suite.NoError(suite.svc.UpdateTurn(ctx, 3, models.PhaseResolution))

	state, err := suite.svc.GetFullState(ctx)
	suite.NoError(err)
	suite.Equal(3, state.TurnNumber)
	suite.Equal(models.PhaseResolution, state.TurnPhase)

	// 阶段仅作记录，任意取值都接受
	suite.NoError(suite.svc.UpdateTurn(ctx, 1, "ambush"))
	state, _ = suite.svc.GetFullState(ctx)
	suite.Equal("ambush", state.TurnPhase)
}

// 测试移除棋子，重复移除为空操作
func (suite *GameStateServiceTestSuite) TestRemoveToken() {
	ctx := context.Background()

	_, err := suite.svc.MoveToken(ctx, suite.gm, suite.move("bandit-1", models.TokenTypeEnemy, 2, 2))
	suite.NoError(err)

	suite.NoError(suite.svc.RemoveToken(ctx, "bandit-1"))
	suite.Equal(int64(0), suite.positionCount())

	// 不存在时静默成功
	suite.NoError(suite.svc.RemoveToken(ctx, "bandit-1"))
}

// 测试并发移动同一棋子最终只有一行
func (suite *GameStateServiceTestSuite) TestConcurrentMovesSingleRow() {
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, _ = suite.svc.MoveToken(ctx, suite.gm, suite.move(suite.tokenID, models.TokenTypePlayer, n, n))
		}(i)
	}
	wg.Wait()

	suite.Equal(int64(1), suite.positionCount())
}

func TestGameStateServiceSuite(t *testing.T) {
	suite.Run(t, new(GameStateServiceTestSuite))
}
