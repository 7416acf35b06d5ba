package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// welcomeEmailAttempts и welcomeEmailBackoff задают политику повторов
// для приветственного письма. Отказ SMTP не откатывает регистрацию.
const (
	welcomeEmailAttempts = 3
	welcomeEmailBackoff  = 30 * time.Second
)

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*models.User, error)
	Login(ctx context.Context, creds models.Credentials) (*models.User, error)
}

type RegisterInput struct {
	FirstName string `json:"first_name" validate:"required"`
	LastName  string `json:"last_name" validate:"required"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
}

type authService struct {
	userRepo  repositories.UserRepository
	notifier  Notifier
	tasks     TaskQueue
	publicURL string
}

func NewAuthService(userRepo repositories.UserRepository, notifier Notifier, tasks TaskQueue, publicURL string) AuthService {
	return &authService{
		userRepo:  userRepo,
		notifier:  notifier,
		tasks:     tasks,
		publicURL: publicURL,
	}
}

func (s *authService) Register(ctx context.Context, input RegisterInput) (*models.User, error) {
	if len(input.Password) < minPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
	}

	user := &models.User{
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		Role:         models.RolePlayer,
		Coins:        0,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrUserEmailConflict) {
			return nil, ErrUserEmailConflict
		}
		return nil, fmt.Errorf("ошибка создания пользователя: %w", err)
	}

	s.enqueueWelcomeEmail(user.Email)

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) Login(ctx context.Context, creds models.Credentials) (*models.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, creds.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, ErrAuthInvalidCredentials
		}
		return nil, fmt.Errorf("failed to compare password hash: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *authService) enqueueWelcomeEmail(email string) {
	if s.notifier == nil || s.tasks == nil {
		return
	}
	publicURL := s.publicURL
	s.tasks.SubmitWithRetry("welcome_email", welcomeEmailAttempts, welcomeEmailBackoff, func(ctx context.Context) error {
		body, err := WelcomeEmailBody(publicURL, email)
		if err != nil {
			return err
		}
		return s.notifier.Send(ctx, email, "Добро пожаловать в лигу!", body)
	})
}
