package service

import (
	"context"
	"testing"

	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// AuthServiceTestSuite 认证服务测试套件
type AuthServiceTestSuite struct {
	suite.Suite
	db          *gorm.DB
	authService AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.db = repository.SetupTestDB()

	services := NewServices(suite.db, DefaultConfig(), nil, zap.NewNop())
	suite.authService = services.Auth
}

func (suite *AuthServiceTestSuite) TearDownTest() {
	repository.CleanupTestDB(suite.db)
}

func (suite *AuthServiceTestSuite) register(username string) *AuthResponse {
	resp, err := suite.authService.Register(context.Background(), &RegisterRequest{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
	})
	suite.NoError(err)
	suite.NotNil(resp)
	return resp
}

// 测试注册
func (suite *AuthServiceTestSuite) TestRegister() {
	resp := suite.register("tex")

	suite.NotEmpty(resp.AccessToken)
	suite.NotEmpty(resp.RefreshToken)
	suite.Equal("Bearer", resp.TokenType)
	suite.Equal("tex", resp.User.Username)
	// 新用户一律是PLAYER
	suite.Equal(models.RolePlayer, resp.User.Role)
	// 昵称缺省取用户名
	suite.Equal("tex", resp.User.Nickname)

	// 认证信息已落库且密码不是明文
	var auth models.UserAuth
	suite.NoError(suite.db.Where("user_id = ?", resp.User.ID).First(&auth).Error)
	suite.NotEqual("password123", auth.Password)
}

// 测试重复注册
func (suite *AuthServiceTestSuite) TestRegisterDuplicate() {
	suite.register("tex")

	_, err := suite.authService.Register(context.Background(), &RegisterRequest{
		Username: "tex",
		Email:    "other@example.com",
		Password: "password123",
	})
	suite.ErrorIs(err, ErrUserExists)
}

// 测试登录
func (suite *AuthServiceTestSuite) TestLogin() {
	suite.register("tex")

	resp, err := suite.authService.Login(context.Background(), &LoginRequest{
		Username: "tex",
		Password: "password123",
		IP:       "10.0.0.7",
	})
	suite.NoError(err)
	suite.NotEmpty(resp.AccessToken)

	// 登录信息已更新
	var user models.User
	suite.NoError(suite.db.Where("username = ?", "tex").First(&user).Error)
	suite.NotNil(user.LastLoginAt)
	suite.Equal("10.0.0.7", user.LastLoginIP)
}

// 测试错误密码
func (suite *AuthServiceTestSuite) TestLoginWrongPassword() {
	resp := suite.register("tex")

	_, err := suite.authService.Login(context.Background(), &LoginRequest{
		Username: "tex",
		Password: "wrong",
	})
	suite.ErrorIs(err, ErrInvalidCredentials)

	// 失败次数+1
	var auth models.UserAuth
	suite.NoError(suite.db.Where("user_id = ?", resp.User.ID).First(&auth).Error)
	suite.Equal(1, auth.LoginAttempts)
}

// 测试未知用户
func (suite *AuthServiceTestSuite) TestLoginUnknownUser() {
	_, err := suite.authService.Login(context.Background(), &LoginRequest{
		Username: "nobody",
		Password: "password123",
	})
	suite.ErrorIs(err, ErrInvalidCredentials)
}

// 测试封禁用户登录被拒
func (suite *AuthServiceTestSuite) TestLoginBanned() {
	resp := suite.register("tex")
	suite.NoError(suite.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		Update("status", "banned").Error)

	_, err := suite.authService.Login(context.Background(), &LoginRequest{
		Username: "tex",
		Password: "password123",
	})
	suite.ErrorIs(err, ErrUserBanned)
}

// 测试令牌验证还原操作者
func (suite *AuthServiceTestSuite) TestValidateToken() {
	resp := suite.register("tex")

	actor, err := suite.authService.ValidateToken(context.Background(), resp.AccessToken)
	suite.NoError(err)
	suite.Equal(resp.User.ID, actor.UserID)
	suite.Equal("tex", actor.Username)
	suite.Equal(models.RolePlayer, actor.Role)
	suite.False(actor.IsGameMaster())

	// 刷新令牌不能当访问令牌用
	_, err = suite.authService.ValidateToken(context.Background(), resp.RefreshToken)
	suite.ErrorIs(err, ErrInvalidToken)

	_, err = suite.authService.ValidateToken(context.Background(), "garbage")
	suite.ErrorIs(err, ErrInvalidToken)
}

// 测试刷新令牌携带最新角色
func (suite *AuthServiceTestSuite) TestRefreshTokenPicksUpRole() {
	resp := suite.register("tex")

	// 提升为GM后刷新
	suite.NoError(suite.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		Update("role", models.RoleGameMaster).Error)

	refreshed, err := suite.authService.RefreshToken(context.Background(), resp.RefreshToken)
	suite.NoError(err)

	actor, err := suite.authService.ValidateToken(context.Background(), refreshed.AccessToken)
	suite.NoError(err)
	suite.True(actor.IsGameMaster())
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
