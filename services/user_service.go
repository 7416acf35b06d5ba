package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/courtside/community-league/storage"
	"golang.org/x/crypto/bcrypt"
)

type UserService interface {
	GetProfileByID(ctx context.Context, id int) (*models.User, error)
	UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (*models.User, error)
	// TopUpCoins начисляет монеты и возвращает новый баланс.
	TopUpCoins(ctx context.Context, id int, amount int) (int, error)
	UpdateUserAvatar(ctx context.Context, userID int, file io.Reader, contentType string) (*models.User, error)
}

type UpdateProfileInput struct {
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	Email        *string `json:"email" validate:"omitempty,email"`
	Password     *string `json:"password"`
	Position     *string `json:"position"`
	Address      *string `json:"address"`
	Availability *string `json:"availability"`
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader) UserService {
	return &userService{
		userRepo: userRepo,
		uploader: uploader,
	}
}

func (s *userService) GetProfileByID(ctx context.Context, id int) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user profile: %w", err)
	}
	populateUserPhotoURL(user, s.uploader)
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int, input UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for update: %w", err)
	}

	if input.FirstName != nil {
		user.FirstName = *input.FirstName
	}
	if input.LastName != nil {
		user.LastName = *input.LastName
	}
	if input.Email != nil {
		user.Email = *input.Email
	}
	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(*input.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("ошибка хеширования пароля: %w", err)
		}
		user.PasswordHash = string(hashed)
	}
	if input.Position != nil {
		user.Position = input.Position
	}
	if input.Address != nil {
		user.Address = input.Address
	}
	if input.Availability != nil {
		user.Availability = input.Availability
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repositories.ErrUserEmailConflict):
			return nil, ErrUserEmailConflict
		case errors.Is(err, repositories.ErrUserNotFound):
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("ошибка обновления пользователя: %w", err)
	}

	populateUserPhotoURL(user, s.uploader)
	user.PasswordHash = ""
	return user, nil
}

func (s *userService) TopUpCoins(ctx context.Context, id int, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrTopUpInvalidAmount
	}
	balance, err := s.userRepo.AddCoins(ctx, id, amount)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return 0, ErrUserNotFound
		}
		return 0, fmt.Errorf("failed to top up coins: %w", err)
	}
	return balance, nil
}

func (s *userService) UpdateUserAvatar(ctx context.Context, userID int, file io.Reader, contentType string) (*models.User, error) {
	if s.uploader == nil {
		return nil, errors.New("file uploader is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: avatar must be an image", ErrValidationFailed)
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user for avatar upload: %w", err)
	}

	oldKey := user.PhotoKey
	newKey := fmt.Sprintf("avatars/user_%d_%d%s", userID, time.Now().UnixNano(), extensionByContentType(contentType))

	if _, err := s.uploader.Upload(ctx, newKey, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdatePhotoKey(ctx, userID, &newKey); err != nil {
		// Запись не обновилась, подчищаем загруженный объект.
		_ = s.uploader.Delete(ctx, newKey)
		return nil, fmt.Errorf("failed to save avatar key: %w", err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != newKey {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	user.PhotoKey = &newKey
	populateUserPhotoURL(user, s.uploader)
	user.PasswordHash = ""
	return user, nil
}

func extensionByContentType(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ""
	}
}

func populateUserPhotoURL(user *models.User, uploader storage.FileUploader) {
	if user == nil || uploader == nil {
		return
	}
	if user.PhotoKey != nil && *user.PhotoKey != "" {
		url := uploader.GetPublicURL(*user.PhotoKey)
		if url != "" {
			user.PhotoURL = &url
		}
	}
}
