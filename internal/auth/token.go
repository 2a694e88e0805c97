package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/socialwall/internal/model"
)

// TokenType はレスポンスで返すトークン種別。
const TokenType = "Bearer"

// Token は発行済みトークンとそのメタ情報を表す。
type Token struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int
}

// Claims は検証済みトークンから取り出したクレームを表す。
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Roles     []string
}

// tokenClaims はJWTに署名されるクレーム構造。
type tokenClaims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles,omitempty"`
}

// TokenService はステートレスな署名付きトークンの発行と検証を提供する。
// サーバー側にセッション記録を持たず、ライフサイクルは署名と有効期限のみで決まる。
// 失効リストは持たないため、漏洩したトークンはTTL満了まで有効である点に注意。
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration

	// now はテストで時計を制御するためのフック。
	now func() time.Time
}

// NewTokenService はTokenServiceを生成する。
// 署名鍵の長さ検証はconfig.Loadで実施済みであることを前提とする。
func NewTokenService(signingKey []byte, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{
		signingKey: signingKey,
		issuer:     issuer,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Issue は認証済みユーザーに対してHS256署名付きトークンを発行する。
func (ts *TokenService) Issue(user *model.AuthenticatedUser) (*Token, error) {
	now := ts.now()

	claims := &tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   user.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
		Roles: user.Roles,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ts.signingKey)
	if err != nil {
		// 署名失敗の詳細はログのみに残し、クライアントには内部エラーとして返す
		slog.Error("failed to sign token", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return &Token{
		AccessToken: signed,
		TokenType:   TokenType,
		ExpiresIn:   int(ts.ttl.Seconds()),
	}, nil
}

// Validate はトークン文字列を検証し、クレームを返す。
// 署名不一致・構造不正・アルゴリズム不一致はInvalidToken、
// 有効期限切れはTokenExpiredとして区別する。
// alg=noneを含むHMAC以外の署名方式は拒否する。
func (ts *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithIssuer(ts.issuer), jwt.WithTimeFunc(ts.now), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, model.NewTokenExpiredError()
		}
		return nil, model.NewInvalidTokenError()
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, model.NewInvalidTokenError()
	}

	result := &Claims{
		Subject: claims.Subject,
		Issuer:  claims.Issuer,
		Roles:   claims.Roles,
	}
	if claims.IssuedAt != nil {
		result.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		result.ExpiresAt = claims.ExpiresAt.Time
	}

	return result, nil
}
