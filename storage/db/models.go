package db

import "database/sql"

type User struct {
	ID              string
	Email           string
	Name            string
	Role            string
	Bio             sql.NullString
	AvatarUrl       sql.NullString
	PreferredModule sql.NullString
	PasswordHash    string
	CreatedAt       string
	UpdatedAt       string
}

type CargoItem struct {
	ID          string
	Name        string
	Category    string
	Module      string
	Section     string
	Location    string
	MassKg      float64
	Priority    int64
	ExpiryDate  sql.NullString
	UsageLimit  sql.NullInt64
	Uses        int64
	IsWaste     bool
	WasteReason sql.NullString
	CreatedAt   string
	UpdatedAt   string
}

type ActivityLog struct {
	ID         int64
	UserID     string
	ActionType string
	ItemID     string
	ItemName   string
	Location   string
	Details    string
	CreatedAt  string
}

type ModuleLoad struct {
	Module    string
	ItemCount int64
	MassKg    float64
}

type WasteCategory struct {
	Category  string
	ItemCount int64
	MassKg    float64
}
