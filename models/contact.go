package models

import "time"

type ContactSubmission struct {
	ID          uint      `gorm:"column:id;primaryKey" json:"id"`
	Name        string    `gorm:"column:name;size:100;not null" json:"name"`
	Email       string    `gorm:"column:email;size:100;not null" json:"email"`
	Subject     string    `gorm:"column:subject;size:200;not null" json:"subject"`
	Message     string    `gorm:"column:message;type:text;not null" json:"message"`
	SubmittedAt time.Time `gorm:"column:submitted_at;not null;index" json:"submitted_at"`
}

func (ContactSubmission) TableName() string { return "contact_submissions" }
