package repository

import (
	"context"
	"errors"
	"hunt_backend/internal/model"
	"hunt_backend/internal/util"

	"gorm.io/gorm"
)

// LocationRepository reads the location catalog. The catalog is maintained
// elsewhere; this service never writes it.
type LocationRepository struct {
	DB *gorm.DB
}

func NewLocationRepository(db *gorm.DB) *LocationRepository {
	return &LocationRepository{DB: db}
}

func (r *LocationRepository) FindByID(ctx context.Context, id string) (*model.Location, error) {
	var location model.Location
	err := r.DB.WithContext(ctx).First(&location, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrLocationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &location, nil
}
