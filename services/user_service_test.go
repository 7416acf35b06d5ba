package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopUpCoinsRejectsNonPositiveAmount(t *testing.T) {
	svc := NewUserService(nil, nil)

	for _, amount := range []int{0, -10} {
		_, err := svc.TopUpCoins(context.Background(), 1, amount)
		require.ErrorIs(t, err, ErrTopUpInvalidAmount, "amount %d", amount)
	}
}

func TestTopUpCoinsReturnsNewBalance(t *testing.T) {
	userRepo := &fakeUserRepo{
		addCoins: func(ctx context.Context, id, amount int) (int, error) {
			assert.Equal(t, 50, amount)
			return 150, nil
		},
	}
	svc := NewUserService(userRepo, nil)

	balance, err := svc.TopUpCoins(context.Background(), 1, 50)
	require.NoError(t, err)
	assert.Equal(t, 150, balance)
}

func TestUpdateProfilePartialFields(t *testing.T) {
	var saved *models.User
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, FirstName: "Иван", LastName: "Петров", Email: "ivan@example.com"}, nil
		},
		update: func(ctx context.Context, user *models.User) error {
			saved = user
			return nil
		},
	}
	svc := NewUserService(userRepo, nil)

	position := "forward"
	user, err := svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Position: &position})
	require.NoError(t, err)
	require.NotNil(t, saved)

	// Незаданные поля не трогаем.
	assert.Equal(t, "Иван", user.FirstName)
	assert.Equal(t, "ivan@example.com", user.Email)
	require.NotNil(t, user.Position)
	assert.Equal(t, "forward", *user.Position)
}

func TestUpdateProfileShortPassword(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
	}
	svc := NewUserService(userRepo, nil)

	short := "short"
	_, err := svc.UpdateProfile(context.Background(), 1, UpdateProfileInput{Password: &short})
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestUpdateUserAvatarRejectsNonImage(t *testing.T) {
	svc := NewUserService(nil, &fakeUploader{})

	_, err := svc.UpdateUserAvatar(context.Background(), 1, bytes.NewReader(nil), "application/pdf")
	require.ErrorIs(t, err, ErrValidationFailed)
}

func TestUpdateUserAvatarReplacesOldKey(t *testing.T) {
	oldKey := "avatars/user_1_old.jpg"
	var savedKey *string
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id, PhotoKey: &oldKey}, nil
		},
		updatePhotoKey: func(ctx context.Context, id int, key *string) error {
			savedKey = key
			return nil
		},
	}
	uploader := &fakeUploader{}
	svc := NewUserService(userRepo, uploader)

	user, err := svc.UpdateUserAvatar(context.Background(), 1, bytes.NewReader([]byte("img")), "image/png")
	require.NoError(t, err)
	require.NotNil(t, savedKey)

	require.Len(t, uploader.uploaded, 1)
	assert.Equal(t, *savedKey, uploader.uploaded[0])
	// Старый объект удалён после успешной записи нового ключа.
	assert.Equal(t, []string{oldKey}, uploader.deleted)
	require.NotNil(t, user.PhotoURL)
}

func TestUpdateUserAvatarCleansUpOnSaveFailure(t *testing.T) {
	userRepo := &fakeUserRepo{
		getByID: func(ctx context.Context, id int) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		updatePhotoKey: func(ctx context.Context, id int, key *string) error {
			return repositories.ErrUserNotFound
		},
	}
	uploader := &fakeUploader{}
	svc := NewUserService(userRepo, uploader)

	_, err := svc.UpdateUserAvatar(context.Background(), 1, bytes.NewReader([]byte("img")), "image/png")
	require.Error(t, err)

	// Загруженный объект не должен остаться висеть без записи в БД.
	require.Len(t, uploader.uploaded, 1)
	assert.Equal(t, uploader.uploaded, uploader.deleted)
}
