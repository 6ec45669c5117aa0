package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/wfunc/arena-game/internal/models"
	"github.com/wfunc/arena-game/internal/repository"
	"github.com/wfunc/arena-game/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("用户名或密码错误")
	ErrUserExists         = errors.New("用户已存在")
	ErrUserNotFound       = errors.New("用户不存在")
	ErrUserBanned         = errors.New("用户已被封禁")
	ErrInvalidToken       = errors.New("无效的令牌")
)

// authService 认证服务实现
type authService struct {
	db         *gorm.DB
	userRepo   repository.UserRepository
	authRepo   repository.UserAuthRepository
	jwtManager *utils.JWTManager
	log        *zap.Logger
}

// NewAuthService 创建认证服务
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	authRepo repository.UserAuthRepository,
	jwtManager *utils.JWTManager,
	log *zap.Logger,
) AuthService {
	return &authService{
		db:         db,
		userRepo:   userRepo,
		authRepo:   authRepo,
		jwtManager: jwtManager,
		log:        log,
	}
}

// Register 用户注册（新用户一律为PLAYER，GM由运维指定）
func (s *authService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	// 检查用户是否已存在
	if user, _ := s.userRepo.FindByUsername(ctx, req.Username); user != nil {
		return nil, ErrUserExists
	}
	if user, _ := s.userRepo.FindByEmail(ctx, req.Email); user != nil {
		return nil, fmt.Errorf("邮箱已被使用")
	}

	// 开始事务
	tx := s.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	// 创建用户
	user := &models.User{
		Username:    req.Username,
		Email:       req.Email,
		Nickname:    req.Nickname,
		Role:        models.RolePlayer,
		Status:      "active",
		LastLoginIP: req.IP,
	}

	if user.Nickname == "" {
		user.Nickname = req.Username
	}

	if err := s.userRepo.WithTx(tx).(repository.UserRepository).Create(ctx, user); err != nil {
		tx.Rollback()
		s.log.Error("Failed to create user", zap.Error(err))
		return nil, fmt.Errorf("创建用户失败: %w", err)
	}

	// 创建认证信息
	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("密码加密失败: %w", err)
	}

	auth := &models.UserAuth{
		UserID:   user.ID,
		Password: hashedPassword,
	}

	if err := s.authRepo.WithTx(tx).(repository.UserAuthRepository).Create(ctx, auth); err != nil {
		tx.Rollback()
		s.log.Error("Failed to create auth", zap.Error(err))
		return nil, fmt.Errorf("创建认证信息失败: %w", err)
	}

	// 提交事务
	if err := tx.Commit().Error; err != nil {
		return nil, fmt.Errorf("提交事务失败: %w", err)
	}

	s.log.Info("User registered successfully",
		zap.Uint("userID", user.ID),
		zap.String("username", user.Username))

	return s.issueTokens(user)
}

// Login 用户登录
func (s *authService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	user, err := s.userRepo.FindByUsername(ctx, req.Username)
	if err != nil || user == nil {
		s.log.Warn("Login failed: user not found", zap.String("username", req.Username))
		return nil, ErrInvalidCredentials
	}

	// 检查用户状态
	if user.Status == "banned" {
		return nil, ErrUserBanned
	}

	// 获取认证信息
	auth, err := s.authRepo.FindByUserID(ctx, user.ID)
	if err != nil {
		s.log.Error("Failed to get auth info", zap.Error(err), zap.Uint("userID", user.ID))
		return nil, ErrInvalidCredentials
	}

	// 验证密码
	valid, err := utils.VerifyPassword(req.Password, auth.Password)
	if err != nil || !valid {
		s.log.Warn("Login failed: invalid password", zap.Uint("userID", user.ID))
		// 记录失败次数
		_ = s.authRepo.UpdateLoginAttempts(ctx, user.ID, auth.LoginAttempts+1)
		return nil, ErrInvalidCredentials
	}

	// 更新登录信息、重置失败次数
	_ = s.userRepo.UpdateLastLogin(ctx, user.ID, req.IP)
	_ = s.authRepo.ResetLoginAttempts(ctx, user.ID)

	s.log.Info("User logged in successfully",
		zap.Uint("userID", user.ID),
		zap.String("username", user.Username),
		zap.String("role", user.Role))

	return s.issueTokens(user)
}

// RefreshToken 刷新令牌
func (s *authService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.jwtManager.ValidateToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != "refresh" {
		return nil, ErrInvalidToken
	}

	// 角色可能变化（例如被提升为GM），从数据库重新读取
	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if user.Status == "banned" {
		return nil, ErrUserBanned
	}

	return s.issueTokens(user)
}

// ValidateToken 验证访问令牌并还原操作者视图
func (s *authService) ValidateToken(ctx context.Context, token string) (*Actor, error) {
	claims, err := s.jwtManager.ValidateToken(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != "access" {
		return nil, ErrInvalidToken
	}

	return &Actor{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     claims.Role,
	}, nil
}

// issueTokens 生成JWT令牌对并组装认证响应
func (s *authService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.jwtManager.GenerateAccessToken(user.ID, user.Username, user.Role)
	if err != nil {
		return nil, fmt.Errorf("生成访问令牌失败: %w", err)
	}

	refreshToken, err := s.jwtManager.GenerateRefreshToken(user.ID, user.Username)
	if err != nil {
		return nil, fmt.Errorf("生成刷新令牌失败: %w", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtManager.GetTokenExpiry("access").Seconds()),
		TokenType:    "Bearer",
	}, nil
}
