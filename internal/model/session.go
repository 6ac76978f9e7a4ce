package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles the backend issues.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// KnownRole reports whether role is one the client can route.
func KnownRole(role string) bool {
	return role == RoleAdmin || role == RoleUser
}

// Session is the authenticated identity held by the client for the current login.
// Token, Role and Username are exactly what the backend returned at login.
type Session struct {
	ID        uuid.UUID `json:"id" gorm:"type:char(36);primaryKey"`
	Token     string    `json:"access_token" gorm:"type:text;not null"`
	Username  string    `json:"username" gorm:"size:50;not null"`
	Role      string    `json:"role" gorm:"size:16;not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName keeps the table name stable across refactors of the type.
func (Session) TableName() string {
	return "dashboard_sessions"
}

// BeforeCreate sets UUID before creating the record.
func (s *Session) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// Expired reports whether the session record itself is past its lifetime.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// LoginResponse is the backend's answer to POST /.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	Username    string `json:"username"`
}
