package domain

import "time"

type Company struct {
	ID        string
	Name      string
	IsClaimed bool
	ClaimedBy *string // account ID, nil while unclaimed
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Account struct {
	ID        string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

const RoleOwner = "owner"
