package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

// JWTTestSuite JWT工具测试套件
type JWTTestSuite struct {
	suite.Suite
	manager *JWTManager
}

func (suite *JWTTestSuite) SetupTest() {
	suite.manager = NewJWTManager(
		"test-secret-key",
		1*time.Hour,    // access token expiry
		7*24*time.Hour, // refresh token expiry
	)
}

// 测试创建JWT管理器
func (suite *JWTTestSuite) TestNewJWTManager() {
	manager := NewJWTManager("secret", 1*time.Hour, 24*time.Hour)
	suite.NotNil(manager)
	// 私有字段无法直接访问，通过GetTokenExpiry间接验证
	suite.Equal(1*time.Hour, manager.GetTokenExpiry("access"))
	suite.Equal(24*time.Hour, manager.GetTokenExpiry("refresh"))
}

// 测试生成访问令牌
func (suite *JWTTestSuite) TestGenerateAccessToken() {
	token, err := suite.manager.GenerateAccessToken(123, "tex", "PLAYER")
	suite.NoError(err)
	suite.NotEmpty(token)
}

// 测试验证令牌
func (suite *JWTTestSuite) TestValidateToken() {
	token, _ := suite.manager.GenerateAccessToken(789, "marshal", "GAME_MASTER")

	claims, err := suite.manager.ValidateToken(token)
	suite.NoError(err)
	suite.NotNil(claims)
	suite.Equal(uint(789), claims.UserID)
	suite.Equal("marshal", claims.Username)
	suite.Equal("GAME_MASTER", claims.Role)
	suite.Equal("access", claims.TokenType)
	suite.Equal("arena-game", claims.Issuer)
}

// 测试验证无效令牌
func (suite *JWTTestSuite) TestValidateInvalidToken() {
	// 完全无效的字符串
	claims, err := suite.manager.ValidateToken("not-a-token")
	suite.Error(err)
	suite.Nil(claims)

	// 使用不同密钥签名的令牌
	other := NewJWTManager("other-secret", 1*time.Hour, 24*time.Hour)
	token, _ := other.GenerateAccessToken(1, "tex", "PLAYER")
	claims, err = suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)
}

// 测试过期令牌
func (suite *JWTTestSuite) TestValidateExpiredToken() {
	expired := NewJWTManager("test-secret-key", -1*time.Hour, 24*time.Hour)
	token, err := expired.GenerateAccessToken(1, "tex", "PLAYER")
	suite.NoError(err)

	claims, err := suite.manager.ValidateToken(token)
	suite.Error(err)
	suite.Nil(claims)
}

// 测试刷新令牌流程
func (suite *JWTTestSuite) TestRefreshAccessToken() {
	refresh, err := suite.manager.GenerateRefreshToken(42, "tex")
	suite.NoError(err)

	access, err := suite.manager.RefreshAccessToken(refresh, "PLAYER")
	suite.NoError(err)
	suite.NotEmpty(access)

	claims, err := suite.manager.ValidateToken(access)
	suite.NoError(err)
	suite.Equal(uint(42), claims.UserID)
	suite.Equal("PLAYER", claims.Role)
	suite.Equal("access", claims.TokenType)

	// 访问令牌不能当作刷新令牌使用
	_, err = suite.manager.RefreshAccessToken(access, "PLAYER")
	suite.Error(err)
}

func TestJWTSuite(t *testing.T) {
	suite.Run(t, new(JWTTestSuite))
}
