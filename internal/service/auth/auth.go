package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/app_errors"
	"github.com/MohamedLahlami/EMSTUDY-sub000/internal/models"
	"github.com/MohamedLahlami/EMSTUDY-sub000/pkg/logger"
)

type AuthRepo interface {
	CreateUser(ctx context.Context, user models.User) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
	UserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type AuthService struct {
	log        logger.Log
	jwtManager *JWTManager
	authRepo   AuthRepo
}

func NewAuthService(l logger.Log, manager *JWTManager, aRepo AuthRepo) *AuthService {
	return &AuthService{
		log:        l,
		jwtManager: manager,
		authRepo:   aRepo,
	}
}

func (u *AuthService) AccessClaims(ctx context.Context, token string) (userID uuid.UUID, role string, err error) {
	claims, err := u.jwtManager.AccessClaims(token)
	if err != nil {
		return uuid.Nil, "", err
	}
	return claims.UserID, claims.Role, nil
}

func (u *AuthService) User(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return u.authRepo.UserByID(ctx, id)
}

func (u *AuthService) LoginUser(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	user, err := u.authRepo.UserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}

	if !checkPasswordHash(password, user.Password) {
		return nil, app_errors.ErrIncorrectPassword
	}

	token, err := u.jwtManager.Generate(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: *user}, nil
}

func (u *AuthService) CreateUser(ctx context.Context, user models.User) (*models.AuthResponse, error) {
	var err error

	if len(user.Password) > 72 || len(user.Password) < 6 {
		return nil, fmt.Errorf("%w: password must be 6 to 72 characters", app_errors.ErrValidation)
	}
	if !models.ValidRole(user.Role) {
		return nil, app_errors.ErrUnknownRole
	}
	user.Name = strings.TrimSpace(user.Name)
	if user.Name == "" {
		return nil, fmt.Errorf("%w: name is required", app_errors.ErrValidation)
	}
	user.Email = normalizeEmail(user.Email)
	user.CreatedAt = time.Now().UTC()

	user.Password, err = hashPassword(user.Password)
	if err != nil {
		return nil, err
	}

	createdUser, err := u.authRepo.CreateUser(ctx, user)
	if err != nil {
		return nil, err
	}
	u.log.Info("user registered", "user_id", createdUser.ID, "role", createdUser.Role)

	token, err := u.jwtManager.Generate(createdUser)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: *createdUser}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
