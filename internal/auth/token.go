package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Streamline-Precision-Apps/shift-scan-server-sub009/internal/model"
)

// JWT Claims
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService JWT令牌签发与校验
type TokenService struct {
	secret []byte
}

// NewTokenService 创建令牌服务
// secret: JWT签名密钥（建议32字节或更长）
func NewTokenService(secret string) *TokenService {
	key := []byte(secret)
	if len(key) == 0 {
		// 没有配置时使用默认值（仅用于开发环境）
		key = []byte("shift-scan-dev-jwt-secret-do-not-use-in-prod")
	}
	return &TokenService{secret: key}
}

// GenerateToken 生成 JWT Token
// 过期时间12小时，覆盖现场作业人员一个完整班次
func (s *TokenService) GenerateToken(user *model.User) (string, error) {
	expirationTime := time.Now().Add(12 * time.Hour)

	claims := &Claims{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "shift-scan",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateToken 验证 JWT Token
func (s *TokenService) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})

	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("无效的Token")
}
