package models

import "time"

// Student requests

type StudentCreateRequest struct {
	FirstName string      `json:"firstName" validate:"required,max=100"`
	LastName  string      `json:"lastName" validate:"required,max=100"`
	Age       OptionalInt `json:"age,omitzero"`
	Belt      Belt        `json:"belt" validate:"required,belt"`
	Coins     OptionalInt `json:"coins,omitzero"`
}

// Reward item requests

type RewardItemCreateRequest struct {
	Title       string      `json:"title" validate:"required,max=200"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
	ImageURL    *string     `json:"imageUrl" validate:"omitempty,url,max=1000"`
	Price       OptionalInt `json:"price,omitzero"`
	Stock       OptionalInt `json:"stock,omitzero"`
}

// RewardItemUpdateRequest carries only the fields to change.
// An explicit null clears description or imageUrl.
type RewardItemUpdateRequest struct {
	Title       OptionalString `json:"title,omitzero"`
	Description OptionalString `json:"description,omitzero"`
	ImageURL    OptionalString `json:"imageUrl,omitzero"`
	Price       OptionalInt    `json:"price,omitzero"`
	Stock       OptionalInt    `json:"stock,omitzero"`
}

// Empty reports whether the request changes nothing
func (r *RewardItemUpdateRequest) Empty() bool {
	return !r.Title.Set && !r.Description.Set && !r.ImageURL.Set && !r.Price.Set && !r.Stock.Set
}

// Auth requests

type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email,max=255"`
	Password string `json:"password" form:"password" validate:"required,min=6,max=128"`
}

// Responses

type MessageResponse struct {
	Message string `json:"message"`
}

type DashboardStats struct {
	TotalStudents    int64          `json:"totalStudents"`
	TotalRewardItems int64          `json:"totalRewardItems"`
	TotalCoins       int64          `json:"totalCoins"`
	OutOfStockItems  int64          `json:"outOfStockItems"`
	RecentActivity   []*ActivityLog `json:"recentActivity"`
	GeneratedAt      time.Time      `json:"generatedAt"`
}
