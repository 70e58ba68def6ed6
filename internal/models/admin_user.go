package models

import "time"

// AdminUserModel is a dashboard account. Only bcrypt hashes are stored.
type AdminUserModel struct {
	Base
	Name         string     `json:"name"`
	Email        string     `json:"email"         gorm:"type:varchar(191);uniqueIndex;not null"`
	PasswordHash string     `json:"-"             gorm:"not null"`
	LastLoginAt  *time.Time `json:"last_login_at"`
}

func (AdminUserModel) TableName() string { return "admin_users" }
