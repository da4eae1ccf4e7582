package services

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSession = errors.New("invalid or expired session token")

type SessionClaims struct {
	UserID int `json:"user_id"`
	jwt.RegisteredClaims
}

// SessionService issues and verifies signed, time-limited session tokens.
// Tokens are never stored server-side; validity is signature + expiry only.
type SessionService interface {
	Issue(userID int) (string, error)
	Parse(token string) (int, error)
}

type sessionService struct {
	secret []byte
	ttl    time.Duration
}

func NewSessionService(secret string, ttl time.Duration) SessionService {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionService{secret: []byte(secret), ttl: ttl}
}

func (s *sessionService) Issue(userID int) (string, error) {
	claims := &SessionClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(userID),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *sessionService) Parse(tokenStr string) (int, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		// защита: принимаем только HMAC (HS256 и т.п.)
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidSession
	}
	return claims.UserID, nil
}
