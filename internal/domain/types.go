package domain

import "time"

type Role string

const (
	RoleAdmin     Role = "administrator"
	RoleCollector Role = "collector"
	RoleViewer    Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleCollector, RoleViewer:
		return true
	}
	return false
}

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusInactive UserStatus = "inactive"
	StatusPending  UserStatus = "pending"
)

func (s UserStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInactive, StatusPending:
		return true
	}
	return false
}

type User struct {
	ID         string
	Name       string
	Email      string
	Role       Role
	AvatarURL  string
	Status     UserStatus
	CreatedAt  time.Time
	AccessLogs []time.Time
}

// FirstName returns the first word of the user's display name.
func (u *User) FirstName() string {
	for i, r := range u.Name {
		if r == ' ' {
			return u.Name[:i]
		}
	}
	return u.Name
}

// PhotoEntry is a committed inspection record. It is never updated in place.
type PhotoEntry struct {
	ID           string
	ImageURL     string
	Timestamp    time.Time
	UserID       string
	Description  string
	Tags         []string
	VehicleModel string
	LicensePlate string
	Location     string
}

// Clone returns a copy that shares no mutable state with p.
func (p PhotoEntry) Clone() PhotoEntry {
	if p.Tags != nil {
		p.Tags = append([]string(nil), p.Tags...)
	}
	return p
}
