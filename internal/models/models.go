package models

import "time"

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

type User struct {
	UserName     string    `json:"userName"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Tlfn         string    `json:"tlfn,omitempty"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type Profile struct {
	UserName  string    `json:"-"`
	Name      string    `json:"name"`
	Uptime    string    `json:"uptime"`
	Server    string    `json:"server"`
	CreatedAt time.Time `json:"createdAt"`
}
