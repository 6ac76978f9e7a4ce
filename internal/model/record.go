package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record is a single user, car, service or login-log row as the backend returns it.
// The server is authoritative; the client only reads attributes by key.
type Record map[string]any

// String formats the attribute at key for display. Missing and null values render as "".
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}

// ID returns the attribute at key as a path-safe identifier.
func (r Record) ID(key string) string {
	return r.String(key)
}

// Option is an id/label pair used by owner and car selects.
type Option struct {
	Value string
	Label string
}

// DashboardStats holds the counters shown on the dashboard home.
type DashboardStats struct {
	TotalUsers    int `json:"total_users"`
	TotalCars     int `json:"total_cars"`
	TotalServices int `json:"total_services"`
	TotalVisitors int `json:"total_visitors"`
}

// Profile is the caller's own user record.
type Profile struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
