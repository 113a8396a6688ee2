package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
)

var signingMethod = jwt.SigningMethodHS256

// TokenParser reads the claims of the bearer tokens the API returns.
// Without a secret the signature is not checked: the web tier only needs the
// claims to route, the API re-validates every call.
type TokenParser struct {
	secret []byte
	now    func() time.Time
}

func NewTokenParser(secret string) *TokenParser {
	p := &TokenParser{now: time.Now}
	if secret != "" {
		p.secret = []byte(secret)
	}
	return p
}

// Parse returns the user the token was issued for together with its expiry.
func (p *TokenParser) Parse(raw string) (models.User, time.Time, error) {
	claims := &models.AccessClaims{}
	var err error
	if p.secret != nil {
		parser := jwt.NewParser(jwt.WithTimeFunc(p.now), jwt.WithValidMethods([]string{signingMethod.Alg()}))
		_, err = parser.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			return p.secret, nil
		})
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(raw, claims)
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return models.User{}, time.Time{}, app_errors.ErrTokenExpired
		}
		return models.User{}, time.Time{}, fmt.Errorf("%w: %v", app_errors.ErrInvalidToken, err)
	}

	if claims.ExpiresAt == nil {
		return models.User{}, time.Time{}, fmt.Errorf("%w: missing exp", app_errors.ErrInvalidToken)
	}
	expiresAt := claims.ExpiresAt.Time
	if !p.now().Before(expiresAt) {
		return models.User{}, time.Time{}, app_errors.ErrTokenExpired
	}

	userID := claims.UserID
	if userID == uuid.Nil {
		userID, err = uuid.Parse(claims.Subject)
		if err != nil {
			return models.User{}, time.Time{}, fmt.Errorf("%w: bad subject", app_errors.ErrInvalidToken)
		}
	}
	if !models.ValidRole(claims.Role) {
		return models.User{}, time.Time{}, fmt.Errorf("%w: %q", app_errors.ErrUnknownRole, claims.Role)
	}

	return models.User{
		ID:    userID,
		Name:  claims.Name,
		Email: claims.Email,
		Role:  claims.Role,
	}, expiresAt, nil
}
