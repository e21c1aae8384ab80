package models

import "time"

// User roles
const (
	RoleCustomer = "customer"
	RoleWorker   = "worker"
)

// User represents a user in the system. Accounts are owned by the external
// auth service; chat only mirrors what it needs for display and presence.
type User struct {
	ID        string    `json:"id" db:"id"`
	Email     string    `json:"email" db:"email"`
	Name      string    `json:"name" db:"name"`
	Avatar    *string   `json:"avatar,omitempty" db:"avatar"`
	Role      string    `json:"role" db:"role"` // 'customer' or 'worker'
	IsOnline  bool      `json:"isOnline" db:"is_online"`
	LastSeen  time.Time `json:"lastSeen" db:"last_seen"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// UserResponse is what we send to clients
type UserResponse struct {
	ID       string  `json:"id"`
	Email    string  `json:"email,omitempty"`
	Name     string  `json:"name"`
	Avatar   *string `json:"avatar,omitempty"`
	Role     string  `json:"role,omitempty"`
	IsOnline bool    `json:"isOnline"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:       u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Avatar:   u.Avatar,
		Role:     u.Role,
		IsOnline: u.IsOnline,
	}
}
