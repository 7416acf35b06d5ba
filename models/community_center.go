package models

import "time"

// BookingStatus представляет статусы бронирования слота, соответствующие ENUM в БД.
type BookingStatus string

const (
	BookingStatusPending  BookingStatus = "pending"
	BookingStatusAssigned BookingStatus = "assigned"
)

// Booking — бронирование слота на конкретную дату конкретным пользователем.
// Идентификатор назначается при создании брони и уникален в пределах центра.
type Booking struct {
	ID       string        `json:"id"`
	BookedBy int           `json:"booked_by"`
	Status   BookingStatus `json:"status"`
	Date     time.Time     `json:"date"`
}

// Slot — временное окно внутри дня (например, 18:00–19:00).
type Slot struct {
	StartTime string    `json:"start_time"`
	EndTime   string    `json:"end_time"`
	Bookings  []Booking `json:"bookings,omitempty"`
}

// CommunityTimeSlot — расписание одного дня недели (MON..SUN).
type CommunityTimeSlot struct {
	Day   string `json:"day"`
	Slots []Slot `json:"slots,omitempty"`
}

// CommunityCenter владеет своим деревом расписания целиком: снаружи на
// бронирования ссылаются только по идентификатору.
type CommunityCenter struct {
	ID        int                 `json:"id" db:"id"`
	Name      string              `json:"name" db:"name"`
	Address   string              `json:"address" db:"address"`
	Latitude  float64             `json:"latitude" db:"latitude"`
	Longitude float64             `json:"longitude" db:"longitude"`
	Price     int                 `json:"price" db:"price"`
	Schedule  []CommunityTimeSlot `json:"schedule,omitempty" db:"schedule"`
	CreatedAt time.Time           `json:"created_at" db:"created_at"`

	PhotoKey *string `json:"-" db:"photo_key"`
	PhotoURL *string `json:"photo_url,omitempty" db:"-"`
}
