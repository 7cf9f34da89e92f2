package models

import (
	"time"

	"gorm.io/datatypes"
)

// PredictionRecord is written once per authenticated prediction and never
// updated afterwards.
type PredictionRecord struct {
	ID             uint              `gorm:"column:id;primaryKey" json:"id"`
	UserID         *uint             `gorm:"column:user_id;index" json:"user_id"`
	PredictionData datatypes.JSONMap `gorm:"column:prediction_data" json:"prediction_data"`
	PredictedPrice float64           `gorm:"column:predicted_price;not null" json:"predicted_price"`
	CreatedAt      time.Time         `gorm:"column:created_at;index" json:"created_at"`
	Notes          *string           `gorm:"column:notes" json:"notes"`

	User *User `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
}

func (PredictionRecord) TableName() string { return "prediction_history" }

type FavoritePrediction struct {
	ID           uint      `gorm:"column:id;primaryKey" json:"id"`
	UserID       uint      `gorm:"column:user_id;not null;uniqueIndex:idx_favorite_user_prediction" json:"user_id"`
	PredictionID uint      `gorm:"column:prediction_id;not null;uniqueIndex:idx_favorite_user_prediction" json:"prediction_id"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	Notes        *string   `gorm:"column:notes" json:"notes"`

	User       *User             `gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE" json:"-"`
	Prediction *PredictionRecord `gorm:"foreignKey:PredictionID;references:ID;constraint:OnDelete:CASCADE" json:"prediction,omitempty"`
}

func (FavoritePrediction) TableName() string { return "favorite_predictions" }
