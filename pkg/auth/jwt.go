package auth

import (
	"errors"
	"time"

	"memory-service/internal/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

const (
	ScopePlayer = "player"
)

type Claims struct {
	SubjectID string `json:"subjectId"`
	Name      string `json:"name"`
	Scope     string `json:"scope"`
	jwt.RegisteredClaims
}

func GeneratePlayerToken(playerID, name string) (string, time.Time, error) {
	duration := time.Duration(config.GlobalConfig.JWT.Expire) * time.Hour
	expireAt := time.Now().Add(duration)
	claims := Claims{
		SubjectID: playerID,
		Name:      name,
		Scope:     ScopePlayer,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expireAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Subject:   ScopePlayer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(config.GlobalConfig.JWT.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expireAt, nil
}

func ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(config.GlobalConfig.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func ParsePlayerToken(tokenString string) (*Claims, error) {
	claims, err := ParseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Scope != ScopePlayer || claims.SubjectID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
