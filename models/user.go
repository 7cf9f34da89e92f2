package models

import "time"

type User struct {
	ID        uint       `gorm:"column:id;primaryKey" json:"id"`
	Email     string     `gorm:"column:email;size:255;uniqueIndex;not null" json:"email"`
	Username  string     `gorm:"column:username;size:100;uniqueIndex;not null" json:"username"`
	Password  string     `gorm:"column:hashed_password;not null" json:"-"`
	IsActive  bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	IsAdmin   bool       `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	LastLogin *time.Time `gorm:"column:last_login" json:"last_login"`
}

func (User) TableName() string { return "users" }

func (u User) Role() string {
	if u.IsAdmin {
		return "admin"
	}
	return "user"
}
