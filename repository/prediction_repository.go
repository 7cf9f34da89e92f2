package repository

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"house-price-api/features"
	"house-price-api/models"
)

type PredictionRepository struct {
	db *gorm.DB
}

func NewPredictionRepository(db *gorm.DB) *PredictionRepository {
	return &PredictionRepository{db: db}
}

// Create stores one prediction for userID inside a transaction. The input
// features are kept exactly as submitted. Nothing is committed on failure.
func (r *PredictionRepository) Create(ctx context.Context, userID uint, fs features.FeatureSet, price float64) (*models.PredictionRecord, error) {
	rec := &models.PredictionRecord{
		UserID:         &userID,
		PredictionData: datatypes.JSONMap(fs),
		PredictedPrice: price,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owner models.User
		if err := tx.Select("id").First(&owner, userID).Error; err != nil {
			return err
		}
		return tx.Create(rec).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	return rec, nil
}

// Cursor marks the last record of a page. Records sharing a timestamp are
// ordered by id, so the pair is unique.
type Cursor struct {
	CreatedAt time.Time
	ID        uint
}

// CursorFor returns the cursor positioned at rec.
func CursorFor(rec models.PredictionRecord) Cursor {
	return Cursor{CreatedAt: rec.CreatedAt, ID: rec.ID}
}

// ListByUser returns the newest records first. When after is set only
// records that sort strictly after it are returned.
func (r *PredictionRepository) ListByUser(ctx context.Context, userID uint, limit int, after *Cursor) ([]models.PredictionRecord, error) {
	query := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)
	if after != nil {
		query = query.Where("created_at < ? OR (created_at = ? AND id < ?)", after.CreatedAt, after.CreatedAt, after.ID)
	}

	var rows []models.PredictionRecord
	if err := query.Find(&rows).Error; err != nil {
		return nil, wrap(err)
	}
	return rows, nil
}

// GetForUser returns ErrNotFound for records owned by someone else.
func (r *PredictionRepository) GetForUser(ctx context.Context, userID, id uint) (*models.PredictionRecord, error) {
	var rec models.PredictionRecord
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&rec).Error
	if err != nil {
		return nil, wrap(err)
	}
	return &rec, nil
}

func (r *PredictionRepository) AddFavorite(ctx context.Context, userID, predictionID uint, notes *string) (*models.FavoritePrediction, error) {
	fav := &models.FavoritePrediction{UserID: userID, PredictionID: predictionID, Notes: notes}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rec models.PredictionRecord
		if err := tx.Select("id").Where("id = ? AND user_id = ?", predictionID, userID).First(&rec).Error; err != nil {
			return err
		}
		return tx.Create(fav).Error
	})
	if err != nil {
		return nil, wrap(err)
	}
	return fav, nil
}

func (r *PredictionRepository) ListFavorites(ctx context.Context, userID uint) ([]models.FavoritePrediction, error) {
	var favs []models.FavoritePrediction
	err := r.db.WithContext(ctx).
		Preload("Prediction").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&favs).Error
	if err != nil {
		return nil, wrap(err)
	}
	return favs, nil
}

func (r *PredictionRepository) DeleteFavorite(ctx context.Context, userID, id uint) error {
	res := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.FavoritePrediction{})
	if res.Error != nil {
		return wrap(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
