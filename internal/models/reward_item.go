package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RewardItem struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	Title       string    `json:"title" gorm:"not null;size:200"`
	Description *string   `json:"description" gorm:"type:text"`
	ImageURL    *string   `json:"imageUrl" gorm:"size:1000"`
	Price       int       `json:"price" gorm:"not null;check:chk_reward_items_price,price >= 1"`
	Stock       int       `json:"stock" gorm:"not null;default:0;check:chk_reward_items_stock,stock >= 0"`
	CreatedAt   time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (RewardItem) TableName() string {
	return "reward_items"
}

func (r *RewardItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
