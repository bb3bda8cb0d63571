package repository

import (
	"context"

	"stayhub/internal/domain"

	"gorm.io/gorm"
)

type RoomRepository struct {
	db *gorm.DB
}

func NewRoomRepository(db *gorm.DB) *RoomRepository {
	return &RoomRepository{db: db}
}

func (r *RoomRepository) Create(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Create(room).Error
}

func (r *RoomRepository) Update(ctx context.Context, room *domain.Room) error {
	return r.db.WithContext(ctx).Save(room).Error
}

func (r *RoomRepository) GetByID(ctx context.Context, id int64) (*domain.Room, error) {
	var room domain.Room
	if err := r.db.WithContext(ctx).First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *RoomRepository) ListByHotel(ctx context.Context, hotelID int64) ([]domain.Room, error) {
	var rooms []domain.Room
	err := r.db.WithContext(ctx).
		Where("hotel_id = ?", hotelID).
		Order("number").
		Find(&rooms).Error
	return rooms, err
}

// UpdateStatus sets the advisory room status. Best-effort from the
// booking paths: the overlap check, not the status, protects against
// double-booking.
func (r *RoomRepository) UpdateStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error {
	return r.db.WithContext(ctx).Model(&domain.Room{}).
		Where("id = ?", roomID).
		Update("status", string(status)).Error
}
