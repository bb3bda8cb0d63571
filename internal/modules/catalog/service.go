package catalog

import (
	"context"
	"errors"

	"stayhub/internal/domain"
	"stayhub/internal/repository"

	"gorm.io/gorm"
)

var (
	ErrValidation = errors.New("validation error")
	ErrNotFound   = errors.New("not found")
)

// Service is the admin inventory surface: hotel and room CRUD plus the
// customer-facing listings. Thin glue over the repositories.
type Service struct {
	hotels *repository.HotelRepository
	rooms  *repository.RoomRepository
}

func NewService(hotels *repository.HotelRepository, rooms *repository.RoomRepository) *Service {
	return &Service{hotels: hotels, rooms: rooms}
}

func (s *Service) CreateHotel(ctx context.Context, req CreateHotelRequest) (*domain.Hotel, error) {
	h := &domain.Hotel{
		Name:        req.Name,
		Address:     req.Address,
		City:        req.City,
		Description: req.Description,
		Stars:       req.Stars,
	}
	if err := s.hotels.Create(ctx, h); err != nil {
		return nil, err
	}
	return h, nil
}

func (s *Service) GetHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	h, err := s.hotels.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

func (s *Service) ListHotels(ctx context.Context, limit, offset int) ([]domain.Hotel, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.hotels.List(ctx, limit, offset)
}

func (s *Service) CreateRoom(ctx context.Context, req CreateRoomRequest) (*domain.Room, error) {
	if _, err := s.hotels.GetByID(ctx, req.HotelID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	room := &domain.Room{
		HotelID:       req.HotelID,
		Number:        req.Number,
		Description:   req.Description,
		Capacity:      req.Capacity,
		PricePerNight: req.PricePerNight,
		Status:        domain.RoomAvailable,
		Photos:        req.Photos,
	}
	if err := s.rooms.Create(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) UpdateRoom(ctx context.Context, roomID int64, req UpdateRoomRequest) (*domain.Room, error) {
	room, err := s.rooms.GetByID(ctx, roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if req.Number != nil {
		room.Number = *req.Number
	}
	if req.Description != nil {
		room.Description = *req.Description
	}
	if req.Capacity != nil {
		if *req.Capacity <= 0 {
			return nil, ErrValidation
		}
		room.Capacity = *req.Capacity
	}
	if req.PricePerNight != nil {
		if *req.PricePerNight < 0 {
			return nil, ErrValidation
		}
		room.PricePerNight = *req.PricePerNight
	}
	if req.Status != nil {
		switch domain.RoomStatus(*req.Status) {
		case domain.RoomAvailable, domain.RoomOccupied, domain.RoomMaintenance:
			room.Status = domain.RoomStatus(*req.Status)
		default:
			return nil, ErrValidation
		}
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *Service) ListRooms(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	return s.rooms.ListByHotel(ctx, hotelID)
}
