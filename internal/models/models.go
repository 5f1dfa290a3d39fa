package models

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	StatusActive   = "active"
	StatusDisabled = "disabled"
)

type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement"     json:"id"`
	Username     string    `gorm:"uniqueIndex;not null"         json:"username"`
	PasswordHash string    `gorm:"not null"                     json:"-"`
	Role         string    `gorm:"not null;default:user"        json:"role"`
	Status       string    `gorm:"not null;default:active"      json:"status"`
	RealName     *string   `                                    json:"real_name,omitempty"`
	StudentID    *string   `gorm:"uniqueIndex"                  json:"student_id,omitempty"`
	College      *string   `                                    json:"college,omitempty"`
	Major        *string   `                                    json:"major,omitempty"`
	Grade        *string   `                                    json:"grade,omitempty"`
	Phone        *string   `                                    json:"phone,omitempty"`
	CreatedAt    time.Time `gorm:"autoCreateTime"               json:"created_at"`
}

func (u *User) Active() bool { return u.Status == StatusActive }

type RefreshToken struct {
	ID        uint      `gorm:"primaryKey"            json:"id"`
	UserID    uint      `gorm:"index;not null"        json:"user_id"`
	Token     string    `gorm:"uniqueIndex;not null"  json:"-"`
	ExpiresAt time.Time `gorm:"index;not null"        json:"expires_at"`
	CreatedAt time.Time `gorm:"autoCreateTime"        json:"created_at"`
}

func (t *RefreshToken) Expired(now time.Time) bool { return t.ExpiresAt.Before(now) }

type Merchant struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description *string   `                                json:"description"`
	Location    *string   `                                json:"location"`
	Phone       *string   `                                json:"phone"`
	CreatedAt   time.Time `gorm:"autoCreateTime"           json:"created_at"`
}

type Stall struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	MerchantID  uint      `gorm:"index;not null"           json:"merchant_id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description *string   `                                json:"description"`
	CreatedAt   time.Time `gorm:"autoCreateTime"           json:"created_at"`
}

type Dish struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	StallID     uint      `gorm:"index;not null"           json:"stall_id"`
	Name        string    `gorm:"not null"                 json:"name"`
	Description *string   `                                json:"description"`
	Price       int64     `gorm:"not null;default:0"       json:"price"`
	Available   bool      `gorm:"not null"                 json:"available"`
	CreatedAt   time.Time `gorm:"autoCreateTime"           json:"created_at"`
}
