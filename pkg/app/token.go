package app

import (
	"fmt"
	"strconv"
	"time"

	"github.com/haierkeys/miknow-notebook-service/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 默认 Token 签发者
const DefaultTokenIssuer = "miknow-notebook-service"

// 上下文中保存工作区令牌的键
const ContextWorkspaceKey = "workspace_token"

// TokenConfig 定义 Token 管理器的配置
type TokenConfig struct {
	SecretKey string        // JWT 签名密钥，为空表示不启用鉴权
	Expiry    time.Duration // Token 过期时间，默认 30 天
	Issuer    string        // Token 签发者
}

// TokenManager 定义 Token 管理接口
type TokenManager interface {
	Enabled() bool
	Generate(uid int64) (string, error)
	Parse(token string) (*WorkspaceClaims, error)
}

type WorkspaceClaims struct {
	UID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type tokenManager struct {
	config TokenConfig
}

// NewTokenManager 创建一个新的 TokenManager 实例
func NewTokenManager(cfg TokenConfig) TokenManager {
	if cfg.Expiry == 0 {
		cfg.Expiry = 30 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = DefaultTokenIssuer
	}
	return &tokenManager{config: cfg}
}

func (t *tokenManager) Enabled() bool {
	return t.config.SecretKey != ""
}

func (t *tokenManager) signingKey() []byte {
	return []byte(t.config.SecretKey + "_" + util.GetMachineID())
}

// Generate 生成工作区 Token
func (t *tokenManager) Generate(uid int64) (string, error) {
	if !t.Enabled() {
		return "", fmt.Errorf("auth token key is not configured")
	}
	now := time.Now()
	claims := &WorkspaceClaims{
		UID: uid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(t.config.Expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    t.config.Issuer,
			Subject:   "workspace-token",
			ID:        strconv.FormatInt(uid, 10),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.signingKey())
}

// Parse 解析 Token 并返回工作区信息
func (t *tokenManager) Parse(token string) (*WorkspaceClaims, error) {
	claims := &WorkspaceClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.signingKey(), nil
	}, jwt.WithIssuer(t.config.Issuer))
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GetUID 从请求上下文中获取工作区 ID，未启用鉴权时为 0
func GetUID(ctx *gin.Context) (out int64) {
	if v, ok := ctx.Get(ContextWorkspaceKey); ok {
		if claims, ok := v.(*WorkspaceClaims); ok {
			out = claims.UID
		}
	}
	return
}
