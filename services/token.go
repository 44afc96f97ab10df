package services

import (
	"strconv"
	"time"

	"downtodine/apperrors"
	"downtodine/config"
	"downtodine/models"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTokenTTL = 7 * 24 * time.Hour

// TokenService is the credential service: it turns a user into an opaque
// bearer token and a bearer token back into a user id.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

type tokenClaims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewTokenService(secret string, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}
}

func NewTokenServiceFromConfig() *TokenService {
	ttl := defaultTokenTTL
	if config.AppConfig != nil && config.AppConfig.Auth.TokenTTL > 0 {
		ttl = time.Duration(config.AppConfig.Auth.TokenTTL) * time.Hour
	}
	secret := ""
	if config.AppConfig != nil {
		secret = config.AppConfig.Auth.JWTSecret
	}
	return NewTokenService(secret, ttl)
}

func (ts *TokenService) Issue(user *models.User) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		Email:    user.Email,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ts.ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ts.secret)
}

// Verify decodes a bearer token and recovers the user id. Any parse,
// signature or expiry failure maps to Unauthorized.
func (ts *TokenService) Verify(tokenString string) (int64, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return ts.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, apperrors.Unauthorized("Invalid token")
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID == 0 {
		return 0, apperrors.Unauthorized("Invalid token")
	}
	return userID, nil
}
