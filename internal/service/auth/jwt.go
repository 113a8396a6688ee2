package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

var signingMethod = jwt.SigningMethodHS256

type JWTManager struct {
	secretKey string
	accessTTL time.Duration
	issuer    string
}

func NewJWTManager(secretKey, issuer string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{
		secretKey: secretKey,
		accessTTL: accessTTL,
		issuer:    issuer,
	}
}

func (j *JWTManager) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != signingMethod {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(j.secretKey), nil
}

func (j *JWTManager) AccessClaims(tokenStr string) (*models.AccessClaims, error) {
	claims := &models.AccessClaims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, j.keyFunc, jwt.WithIssuer(j.issuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, app_errors.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", app_errors.ErrInvalidToken, err)
	}
	return claims, nil
}

func (j *JWTManager) Generate(user *models.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(signingMethod, models.AccessClaims{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    j.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(j.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})

	signed, err := token.SignedString([]byte(j.secretKey))
	if err != nil {
		return "", fmt.Errorf("access token signing failed: %v", err)
	}
	return signed, nil
}
