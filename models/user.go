package models

import (
	"time"
)

// Role values stored in users.role.
const (
	RoleSubmitter = "submitter"
	RoleAdmin     = "admin"
)

// AvatarAnimals is the fixed set of cosmetic avatars a user can pick from.
var AvatarAnimals = []string{"fox", "owl", "panda", "dolphin", "koala", "hedgehog"}

type User struct {
	UserID       int        `gorm:"primaryKey;column:user_id" json:"user_id"`
	Email        string     `gorm:"column:email;unique" json:"email"`
	Password     string     `gorm:"column:password" json:"-"`
	Role         string     `gorm:"column:role" json:"role"`
	DisplayName  string     `gorm:"column:display_name" json:"display_name"`
	AvatarAnimal string     `gorm:"column:avatar_animal" json:"avatar_animal"`
	CreateAt     *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt     *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt     *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// ValidAvatarAnimal reports whether the given avatar is one of the fixed set.
func ValidAvatarAnimal(animal string) bool {
	for _, a := range AvatarAnimals {
		if a == animal {
			return true
		}
	}
	return false
}

// ValidRole reports whether the given role is one of the two fixed roles.
func ValidRole(role string) bool {
	return role == RoleSubmitter || role == RoleAdmin
}
