package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Belt string

const (
	BeltWhite  Belt = "WHITE"
	BeltYellow Belt = "YELLOW"
	BeltOrange Belt = "ORANGE"
	BeltGreen  Belt = "GREEN"
	BeltBlue   Belt = "BLUE"
	BeltPurple Belt = "PURPLE"
	BeltBrown  Belt = "BROWN"
	BeltRed    Belt = "RED"
	BeltBlack  Belt = "BLACK"
)

// AllBelts lists the ranks in promotion order
var AllBelts = []Belt{
	BeltWhite, BeltYellow, BeltOrange, BeltGreen, BeltBlue,
	BeltPurple, BeltBrown, BeltRed, BeltBlack,
}

func (b Belt) IsValid() bool {
	for _, belt := range AllBelts {
		if b == belt {
			return true
		}
	}
	return false
}

// Label renders the rank for display, e.g. "Purple"
func (b Belt) Label() string {
	if b == "" {
		return ""
	}
	return string(b[:1]) + strings.ToLower(string(b[1:]))
}

type Student struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	FirstName string    `json:"firstName" gorm:"not null;size:100"`
	LastName  string    `json:"lastName" gorm:"not null;size:100"`
	Age       *int      `json:"age" gorm:"check:chk_students_age,age IS NULL OR age > 0"`
	Belt      Belt      `json:"belt" gorm:"not null;size:16;default:'WHITE'"`
	Coins     int       `json:"coins" gorm:"not null;default:0;check:chk_students_coins,coins >= 0"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (Student) TableName() string {
	return "students"
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *Student) FullName() string {
	return s.FirstName + " " + s.LastName
}
