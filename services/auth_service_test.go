package services

import (
	"context"
	"testing"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestRegisterRejectsShortPassword(t *testing.T) {
	svc := NewAuthService(nil, nil, nil, "")

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "ivan@example.com",
		Password:  "short",
	})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestRegisterMapsEmailConflict(t *testing.T) {
	userRepo := &fakeUserRepo{
		create: func(ctx context.Context, user *models.User) error {
			return repositories.ErrUserEmailConflict
		},
	}
	svc := NewAuthService(userRepo, nil, nil, "")

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "ivan@example.com",
		Password:  "secret-password",
	})
	require.ErrorIs(t, err, ErrUserEmailConflict)
}

func TestRegisterCreatesPlayerAndEnqueuesWelcomeEmail(t *testing.T) {
	var stored *models.User
	userRepo := &fakeUserRepo{
		create: func(ctx context.Context, user *models.User) error {
			stored = user
			user.ID = 42
			return nil
		},
	}
	queue := &fakeTaskQueue{}

	svc := NewAuthService(userRepo, &fakeNotifier{}, queue, "https://league.example.com")

	user, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "ivan@example.com",
		Password:  "secret-password",
	})
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Equal(t, 42, user.ID)
	assert.Equal(t, models.RolePlayer, user.Role)
	assert.Zero(t, user.Coins)
	// Хеш не утекает наружу, но в репозиторий ушёл валидный bcrypt.
	assert.Empty(t, user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret-password")))

	require.Equal(t, []string{"welcome_email"}, queue.submitted)
}

func TestRegisterWithoutNotifierSkipsEmail(t *testing.T) {
	userRepo := &fakeUserRepo{
		create: func(ctx context.Context, user *models.User) error {
			return nil
		},
	}

	svc := NewAuthService(userRepo, nil, nil, "")

	_, err := svc.Register(context.Background(), RegisterInput{
		FirstName: "Иван",
		LastName:  "Петров",
		Email:     "ivan@example.com",
		Password:  "secret-password",
	})
	require.NoError(t, err)
}

func TestLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := &fakeUserRepo{
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 1, Email: email, PasswordHash: string(hash)}, nil
		},
	}
	svc := NewAuthService(userRepo, nil, nil, "")

	_, err = svc.Login(context.Background(), models.Credentials{
		Email:    "ivan@example.com",
		Password: "wrong-password",
	})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return nil, repositories.ErrUserNotFound
		},
	}
	svc := NewAuthService(userRepo, nil, nil, "")

	_, err := svc.Login(context.Background(), models.Credentials{
		Email:    "nobody@example.com",
		Password: "whatever-password",
	})
	require.ErrorIs(t, err, ErrAuthInvalidCredentials)
}

func TestLoginReturnsUserWithoutHash(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	require.NoError(t, err)

	userRepo := &fakeUserRepo{
		getByEmail: func(ctx context.Context, email string) (*models.User, error) {
			return &models.User{ID: 7, Email: email, PasswordHash: string(hash), Role: models.RolePlayer}, nil
		},
	}
	svc := NewAuthService(userRepo, nil, nil, "")

	user, err := svc.Login(context.Background(), models.Credentials{
		Email:    "ivan@example.com",
		Password: "correct-password",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.Empty(t, user.PasswordHash)
}
