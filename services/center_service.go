package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/courtside/community-league/models"
	"github.com/courtside/community-league/repositories"
	"github.com/courtside/community-league/storage"
	"github.com/google/uuid"
)

var validScheduleDays = map[string]bool{
	"MON": true, "TUE": true, "WED": true, "THU": true,
	"FRI": true, "SAT": true, "SUN": true,
}

type CenterService interface {
	CreateCenter(ctx context.Context, input CreateCenterInput) (*models.CommunityCenter, error)
	GetCenterByID(ctx context.Context, id int) (*models.CommunityCenter, error)
	ListCenters(ctx context.Context, limit, offset int) ([]*models.CommunityCenter, error)
	AddBooking(ctx context.Context, input AddBookingInput) (*models.Booking, error)
	// AssignBookings помечает брони из набора как занятые матчем и
	// сохраняет агрегат центра одной записью. Неизвестные идентификаторы
	// молча пропускаются.
	AssignBookings(ctx context.Context, centerID int, bookingIDs []string) error
	UploadCenterPhoto(ctx context.Context, centerID int, file io.Reader, contentType string) (*models.CommunityCenter, error)
}

type CreateCenterInput struct {
	Name      string                     `json:"name" validate:"required"`
	Address   string                     `json:"address" validate:"required"`
	Latitude  float64                    `json:"latitude" validate:"min=-90,max=90"`
	Longitude float64                    `json:"longitude" validate:"min=-180,max=180"`
	Price     int                        `json:"price" validate:"min=0"`
	Schedule  []models.CommunityTimeSlot `json:"schedule"`
}

type AddBookingInput struct {
	CenterID  int       `json:"center_id" validate:"required"`
	Day       string    `json:"day" validate:"required"`
	StartTime string    `json:"start_time" validate:"required"`
	UserID    int       `json:"-"`
	Date      time.Time `json:"date" validate:"required"`
}

type centerService struct {
	centerRepo repositories.CenterRepository
	txRunner   repositories.TxRunner
	uploader   storage.FileUploader
	logger     *slog.Logger
}

func NewCenterService(
	centerRepo repositories.CenterRepository,
	txRunner repositories.TxRunner,
	uploader storage.FileUploader,
	logger *slog.Logger,
) CenterService {
	return &centerService{
		centerRepo: centerRepo,
		txRunner:   txRunner,
		uploader:   uploader,
		logger:     logger,
	}
}

func (s *centerService) CreateCenter(ctx context.Context, input CreateCenterInput) (*models.CommunityCenter, error) {
	for _, day := range input.Schedule {
		if !validScheduleDays[day.Day] {
			return nil, fmt.Errorf("%w: unknown schedule day %q", ErrValidationFailed, day.Day)
		}
		for _, slot := range day.Slots {
			if slot.StartTime == "" || slot.EndTime == "" {
				return nil, fmt.Errorf("%w: slot start and end time are required", ErrValidationFailed)
			}
		}
	}

	center := &models.CommunityCenter{
		Name:      input.Name,
		Address:   input.Address,
		Latitude:  input.Latitude,
		Longitude: input.Longitude,
		Price:     input.Price,
		Schedule:  input.Schedule,
	}

	if err := s.centerRepo.Create(ctx, center); err != nil {
		return nil, fmt.Errorf("failed to create community center: %w", err)
	}
	return center, nil
}

func (s *centerService) GetCenterByID(ctx context.Context, id int) (*models.CommunityCenter, error) {
	center, err := s.centerRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrCenterNotFound) {
			return nil, ErrCenterNotFound
		}
		return nil, fmt.Errorf("failed to get community center: %w", err)
	}
	populateCenterPhotoURL(center, s.uploader)
	return center, nil
}

func (s *centerService) ListCenters(ctx context.Context, limit, offset int) ([]*models.CommunityCenter, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	centers, err := s.centerRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list community centers: %w", err)
	}
	for _, center := range centers {
		populateCenterPhotoURL(center, s.uploader)
	}
	return centers, nil
}

// AddBooking добавляет бронь в слот и сохраняет расписание целиком под
// блокировкой строки, иначе конкурентная сверка может потерять запись.
func (s *centerService) AddBooking(ctx context.Context, input AddBookingInput) (*models.Booking, error) {
	if !validScheduleDays[input.Day] {
		return nil, fmt.Errorf("%w: unknown schedule day %q", ErrValidationFailed, input.Day)
	}

	booking := &models.Booking{
		ID:       uuid.NewString(),
		BookedBy: input.UserID,
		Status:   models.BookingStatusPending,
		Date:     input.Date,
	}

	err := s.txRunner.RunInTx(ctx, func(q repositories.Queryer) error {
		center, err := s.centerRepo.GetByIDForUpdate(ctx, q, input.CenterID)
		if err != nil {
			if errors.Is(err, repositories.ErrCenterNotFound) {
				return ErrCenterNotFound
			}
			return fmt.Errorf("failed to load center for booking: %w", err)
		}

		placed := false
		for di := range center.Schedule {
			if center.Schedule[di].Day != input.Day {
				continue
			}
			for si := range center.Schedule[di].Slots {
				if center.Schedule[di].Slots[si].StartTime != input.StartTime {
					continue
				}
				center.Schedule[di].Slots[si].Bookings = append(center.Schedule[di].Slots[si].Bookings, *booking)
				placed = true
				break
			}
			break
		}
		if !placed {
			return ErrSlotNotFound
		}

		return s.centerRepo.SaveSchedule(ctx, q, center.ID, center.Schedule)
	})
	if err != nil {
		return nil, err
	}
	return booking, nil
}

func (s *centerService) AssignBookings(ctx context.Context, centerID int, bookingIDs []string) error {
	if len(bookingIDs) == 0 {
		return nil
	}

	wanted := make(map[string]bool, len(bookingIDs))
	for _, id := range bookingIDs {
		wanted[id] = true
	}

	return s.txRunner.RunInTx(ctx, func(q repositories.Queryer) error {
		center, err := s.centerRepo.GetByIDForUpdate(ctx, q, centerID)
		if err != nil {
			if errors.Is(err, repositories.ErrCenterNotFound) {
				return ErrCenterNotFound
			}
			return fmt.Errorf("failed to load center for reconciliation: %w", err)
		}

		assigned := 0
		for di := range center.Schedule {
			for si := range center.Schedule[di].Slots {
				bookings := center.Schedule[di].Slots[si].Bookings
				for bi := range bookings {
					if wanted[bookings[bi].ID] {
						bookings[bi].Status = models.BookingStatusAssigned
						assigned++
					}
				}
			}
		}

		if assigned < len(bookingIDs) && s.logger != nil {
			s.logger.Warn("some booking ids were not found during reconciliation",
				slog.Int("center_id", centerID),
				slog.Int("requested", len(bookingIDs)),
				slog.Int("assigned", assigned),
			)
		}

		return s.centerRepo.SaveSchedule(ctx, q, center.ID, center.Schedule)
	})
}

func (s *centerService) UploadCenterPhoto(ctx context.Context, centerID int, file io.Reader, contentType string) (*models.CommunityCenter, error) {
	if s.uploader == nil {
		return nil, errors.New("file uploader is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: center photo must be an image", ErrValidationFailed)
	}

	center, err := s.centerRepo.GetByID(ctx, centerID)
	if err != nil {
		if errors.Is(err, repositories.ErrCenterNotFound) {
			return nil, ErrCenterNotFound
		}
		return nil, fmt.Errorf("failed to load center for photo upload: %w", err)
	}

	oldKey := center.PhotoKey
	newKey := fmt.Sprintf("centers/center_%d_%d%s", centerID, time.Now().UnixNano(), extensionByContentType(contentType))

	if _, err := s.uploader.Upload(ctx, newKey, contentType, file); err != nil {
		return nil, fmt.Errorf("failed to upload center photo: %w", err)
	}

	if err := s.centerRepo.UpdatePhotoKey(ctx, centerID, &newKey); err != nil {
		// Запись не обновилась, подчищаем загруженный объект.
		_ = s.uploader.Delete(ctx, newKey)
		return nil, fmt.Errorf("failed to save center photo key: %w", err)
	}

	if oldKey != nil && *oldKey != "" && *oldKey != newKey {
		_ = s.uploader.Delete(ctx, *oldKey)
	}

	center.PhotoKey = &newKey
	populateCenterPhotoURL(center, s.uploader)
	return center, nil
}

func populateCenterPhotoURL(center *models.CommunityCenter, uploader storage.FileUploader) {
	if center == nil || uploader == nil {
		return
	}
	if center.PhotoKey != nil && *center.PhotoKey != "" {
		url := uploader.GetPublicURL(*center.PhotoKey)
		if url != "" {
			center.PhotoURL = &url
		}
	}
}
