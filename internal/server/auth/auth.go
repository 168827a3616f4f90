// Package auth 把连接请求中的令牌解析为玩家身份
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissingToken = errors.New("missing token")
	ErrInvalidToken = errors.New("invalid token")
)

const maxNameLength = 32

// Identity 已认证的玩家身份
type Identity struct {
	ID   string
	Name string
}

// Claims 身份令牌内容，sub 为玩家 ID
type Claims struct {
	Name string `json:"name"`
	jwt.RegisteredClaims
}

// Verifier 校验 HS256 令牌。secret 为空时进入游客模式：
// 直接信任请求中的 playerId/name 参数，缺省时分配随机 ID
type Verifier struct {
	secret []byte
}

// NewVerifier 创建校验器
func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// GuestMode 是否为游客模式
func (v *Verifier) GuestMode() bool {
	return len(v.secret) == 0
}

// Resolve 校验令牌并返回身份
func (v *Verifier) Resolve(token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid {
		return Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return Identity{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	name := claims.Name
	if name == "" {
		name = sub
	}
	return Identity{ID: sub, Name: truncate(name)}, nil
}

// Issue 签发令牌，主要用于测试和运维工具
func (v *Verifier) Issue(id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Name: id.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.secret)
}

// FromRequest 从请求中取身份：Authorization: Bearer 头或 token 查询参数
func (v *Verifier) FromRequest(r *http.Request) (Identity, error) {
	if v.GuestMode() {
		return guestIdentity(r), nil
	}

	token := r.URL.Query().Get("token")
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		token = strings.TrimPrefix(h, "Bearer ")
	}
	return v.Resolve(token)
}

func guestIdentity(r *http.Request) Identity {
	q := r.URL.Query()
	id := strings.TrimSpace(q.Get("playerId"))
	if id == "" {
		id = uuid.NewString()
	}
	name := strings.TrimSpace(q.Get("name"))
	if name == "" {
		name = "玩家" + id[:min(4, len(id))]
	}
	return Identity{ID: id, Name: truncate(name)}
}

func truncate(name string) string {
	r := []rune(name)
	if len(r) > maxNameLength {
		return string(r[:maxNameLength])
	}
	return name
}
