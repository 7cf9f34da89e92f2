package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"house-price-api/models"
)

type ContactRepository struct {
	db  *gorm.DB
	now func() time.Time
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db, now: time.Now}
}

// Create assigns the id and submission time.
func (r *ContactRepository) Create(ctx context.Context, s *models.ContactSubmission) error {
	s.ID = 0
	s.SubmittedAt = r.now().UTC()
	return wrap(r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(s).Error
	}))
}

// List returns every submission, newest first.
func (r *ContactRepository) List(ctx context.Context) ([]models.ContactSubmission, error) {
	var rows []models.ContactSubmission
	err := r.db.WithContext(ctx).Order("submitted_at DESC").Order("id DESC").Find(&rows).Error
	if err != nil {
		return nil, wrap(err)
	}
	return rows, nil
}
