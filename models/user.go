// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a field supervisor allowed to file survey submissions.
type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"         json:"id"`
	Name         string    `gorm:"size:100;not null"            json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex"         json:"email"`
	Phone        string    `gorm:"size:15;uniqueIndex;not null" json:"phone"`
	PasswordHash string    `gorm:"size:255;not null"            json:"-"`
	Role         string    `gorm:"size:50;default:Supervisor"   json:"role"`
	IsActive     bool      `gorm:"default:true"                 json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}
