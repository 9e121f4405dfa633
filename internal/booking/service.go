package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fjod/athometyre/internal/domain"
	"github.com/fjod/athometyre/internal/repository"
	"github.com/fjod/athometyre/pkg/logger"
	"github.com/google/uuid"
)

const maxNotesLength = 500

var (
	ErrInvalidServiceType = errors.New("unknown service type")
	ErrScheduleInPast     = errors.New("booking must be scheduled in the future")
	ErrVehicleRequired    = errors.New("vehicle make and model are required")
	ErrNotesTooLong       = errors.New("notes must be at most 500 characters")
	ErrBookingNotFound    = repository.ErrBookingNotFound
	ErrNotCancellable     = repository.ErrIllegalBookingMove
)

type Request struct {
	ServiceType string                `json:"serviceType"`
	Vehicle     domain.VehicleDetails `json:"vehicle"`
	ScheduledAt time.Time             `json:"scheduledAt"`
	Notes       string                `json:"notes"`
}

type Service struct {
	repo repository.BookingRepository
	log  *slog.Logger
	now  func() time.Time
}

func NewService(repo repository.BookingRepository, log *slog.Logger) *Service {
	if log == nil {
		log = logger.Discard()
	}
	return &Service{repo: repo, log: log, now: time.Now}
}

func (s *Service) Create(ctx context.Context, userID int64, req Request) (*domain.ServiceBooking, error) {
	st := domain.ServiceType(strings.ToUpper(strings.TrimSpace(req.ServiceType)))
	if !st.Valid() {
		return nil, ErrInvalidServiceType
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, ErrScheduleInPast
	}
	v := domain.VehicleDetails{
		Make:         strings.TrimSpace(req.Vehicle.Make),
		Model:        strings.TrimSpace(req.Vehicle.Model),
		Year:         req.Vehicle.Year,
		Registration: strings.ToUpper(strings.TrimSpace(req.Vehicle.Registration)),
	}
	if v.Make == "" || v.Model == "" {
		return nil, ErrVehicleRequired
	}
	notes := strings.TrimSpace(req.Notes)
	if len([]rune(notes)) > maxNotesLength {
		return nil, ErrNotesTooLong
	}

	b := &domain.ServiceBooking{
		UserID:      userID,
		ServiceType: st,
		Vehicle:     v,
		ScheduledAt: req.ScheduledAt.UTC(),
		Status:      domain.BookingRequested,
		Notes:       notes,
	}
	if err := s.repo.CreateBooking(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}
	s.log.InfoContext(ctx, "service booked",
		slog.String("booking_id", b.ID.String()),
		slog.String("service_type", string(st)),
		slog.Time("scheduled_at", b.ScheduledAt))
	return b, nil
}

func (s *Service) List(ctx context.Context, userID int64) ([]domain.ServiceBooking, error) {
	return s.repo.ListBookings(ctx, userID)
}

func (s *Service) Cancel(ctx context.Context, userID int64, id uuid.UUID) (*domain.ServiceBooking, error) {
	b, err := s.repo.CancelBooking(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	s.log.InfoContext(ctx, "booking cancelled", slog.String("booking_id", id.String()))
	return b, nil
}
