package service

import (
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/rocketscienceinc/tictactoe-matches/internal/apperror"
)

const issuer = "tictactoe-matches"

type AuthService interface {
	GenerateToken(userID int64) (string, error)
	ParseToken(token string) (int64, error)
}

type userClaims struct {
	UserID int64 `json:"uid"`
	jwt.RegisteredClaims
}

type authServiceImpl struct {
	secretKey []byte
	ttl       time.Duration
}

func NewAuthService(secretKey string, ttl time.Duration) AuthService {
	return &authServiceImpl{
		secretKey: []byte(secretKey),
		ttl:       ttl,
	}
}

func (that *authServiceImpl) GenerateToken(userID int64) (string, error) {
	now := time.Now()

	claims := userClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(that.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(that.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ParseToken returns the user id of a valid HS256 token, or UNAUTHORIZED.
func (that *authServiceImpl) ParseToken(tokenString string) (int64, error) {
	claims := &userClaims{}

	_, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (any, error) {
		return that.secretKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", apperror.ErrUnauthorized, err)
	}

	if claims.UserID <= 0 {
		return 0, apperror.ErrUnauthorized
	}

	return claims.UserID, nil
}
