package models

import "time"

const RoleAdmin = "admin"

type LoginRequest struct {
	Password string `json:"password"`
}

// AdminSession is the decoded content of a capability token.
type AdminSession struct {
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}
