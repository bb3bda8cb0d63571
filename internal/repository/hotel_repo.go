package repository

import (
	"context"

	"stayhub/internal/domain"

	"gorm.io/gorm"
)

type HotelRepository struct {
	db *gorm.DB
}

func NewHotelRepository(db *gorm.DB) *HotelRepository {
	return &HotelRepository{db: db}
}

func (r *HotelRepository) Create(ctx context.Context, h *domain.Hotel) error {
	return r.db.WithContext(ctx).Create(h).Error
}

func (r *HotelRepository) Update(ctx context.Context, h *domain.Hotel) error {
	return r.db.WithContext(ctx).Save(h).Error
}

func (r *HotelRepository) GetByID(ctx context.Context, id int64) (*domain.Hotel, error) {
	var h domain.Hotel
	if err := r.db.WithContext(ctx).Preload("Rooms").First(&h, id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

func (r *HotelRepository) List(ctx context.Context, limit, offset int) ([]domain.Hotel, error) {
	var hotels []domain.Hotel
	err := r.db.WithContext(ctx).
		Order("name").
		Limit(limit).Offset(offset).
		Find(&hotels).Error
	return hotels, err
}
