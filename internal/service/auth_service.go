package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/licensedesk/internal/cache"
	"github.com/licensedesk/internal/config"
	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/models"
	"github.com/licensedesk/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminTokenIssuer   = "licensedesk"
	adminTokenAudience = "licensedesk-admin"
	minPasswordLength  = 10
)

var ErrWeakPassword = errors.New("password must be at least 10 characters")

// 用户名不存在时也执行一次 bcrypt 比较，避免通过响应时间枚举账号
var dummyPasswordHash, _ = bcrypt.GenerateFromPassword([]byte("licensedesk-dummy-password"), bcrypt.DefaultCost)

// JWTClaims 后台令牌声明；token_version 与管理员记录不一致即视为已吊销
type JWTClaims struct {
	AdminID      uint   `json:"admin_id"`
	Username     string `json:"username"`
	TokenVersion uint64 `json:"token_version"`
	jwt.RegisteredClaims
}

// AuthService 后台管理员认证服务
type AuthService struct {
	cfg       *config.Config
	adminRepo repository.AdminRepository
}

// NewAuthService 创建认证服务实例
func NewAuthService(cfg *config.Config, adminRepo repository.AdminRepository) *AuthService {
	return &AuthService{cfg: cfg, adminRepo: adminRepo}
}

// HashPassword 使用 bcrypt 生成密码哈希
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IssueAdminToken 签发后台令牌
func IssueAdminToken(secret string, ttl time.Duration, admin *models.Admin) (string, time.Time, error) {
	if admin == nil || admin.ID == 0 {
		return "", time.Time{}, ErrInvalidCredentials
	}
	now := time.Now()
	expiresAt := now.Add(ttl)
	claims := JWTClaims{
		AdminID:      admin.ID,
		Username:     admin.Username,
		TokenVersion: admin.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    adminTokenIssuer,
			Audience:  jwt.ClaimStrings{adminTokenAudience},
			Subject:   strconv.FormatUint(uint64(admin.ID), 10),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// ParseAdminToken 校验签名、算法、签发方与受众并返回声明
func ParseAdminToken(secret, tokenString string) (*JWTClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(adminTokenIssuer),
		jwt.WithAudience(adminTokenAudience),
		jwt.WithExpirationRequired(),
	)
	claims := &JWTClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid || claims.AdminID == 0 {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) tokenTTL() time.Duration {
	hours := s.cfg.JWT.ExpireHours
	if hours <= 0 {
		hours = 24
	}
	return time.Duration(hours) * time.Hour
}

// Login 管理员登录
func (s *AuthService) Login(username, password string) (*models.Admin, string, time.Time, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	admin, err := s.adminRepo.GetByUsername(username)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	if admin == nil {
		_ = bcrypt.CompareHashAndPassword(dummyPasswordHash, []byte(password))
		return nil, "", time.Time{}, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)); err != nil {
		return nil, "", time.Time{}, ErrInvalidCredentials
	}

	token, expiresAt, err := IssueAdminToken(s.cfg.JWT.SecretKey, s.tokenTTL(), admin)
	if err != nil {
		return nil, "", time.Time{}, err
	}
	now := time.Now()
	admin.LastLoginAt = &now
	if err := s.adminRepo.UpdateLastLogin(admin.ID, now); err != nil {
		return nil, "", time.Time{}, err
	}
	_ = cache.SetAdminAuthState(context.Background(), cache.BuildAdminAuthState(admin))
	return admin, token, expiresAt, nil
}

// Logout 吊销该管理员已签发的全部令牌
func (s *AuthService) Logout(ctx context.Context, adminID uint) error {
	if _, err := s.adminRepo.BumpTokenVersion(adminID); err != nil {
		return err
	}
	s.dropAuthState(ctx, adminID)
	return nil
}

// ChangePassword 校验旧密码后更新，并吊销已签发令牌
func (s *AuthService) ChangePassword(ctx context.Context, adminID uint, oldPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	admin, err := s.adminRepo.GetByID(adminID)
	if err != nil {
		return err
	}
	if admin == nil {
		return ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(oldPassword)); err != nil {
		return ErrInvalidCredentials
	}
	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.adminRepo.UpdatePassword(adminID, hash); err != nil {
		return err
	}
	s.dropAuthState(ctx, adminID)
	logger.Infow("admin_password_changed", "admin_id", adminID)
	return nil
}

func (s *AuthService) dropAuthState(ctx context.Context, adminID uint) {
	if err := cache.DeleteAdminAuthState(ctx, adminID); err != nil {
		logger.Warnw("admin_auth_state_evict_failed", "admin_id", adminID, "error", err)
	}
}
