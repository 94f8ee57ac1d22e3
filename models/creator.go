package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Creator levels. The ranking pass only touches users whose level is one of
// these; anything else (admin, suspended, ...) is left alone.
const (
	LevelSupreme  = "criador-supremo"
	LevelPartner  = "criador-parceiro"
	LevelCommon   = "criador-comum"
	LevelBeginner = "criador-iniciante"
)

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}

// User is the account row. Level doubles as the role label.
type User struct {
	ID    string `gorm:"primaryKey;type:uuid" json:"id"`
	Name  string `gorm:"not null" json:"name"`
	Email string `gorm:"index" json:"email,omitempty"`
	Level string `gorm:"type:varchar(32);not null;default:'criador-iniciante';index" json:"level"`
	Score int64  `gorm:"not null;default:0" json:"score"` // maintained by the engagement flows

	Timestamps
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Creator is the creator profile attached 1:1 to a user.
type Creator struct {
	ID     string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	User   User   `gorm:"foreignKey:UserID" json:"user,omitempty"`

	Timestamps
}

func (c *Creator) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Donation is a transfer of Sementes from a viewer to a creator.
type Donation struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	DonorID   string    `gorm:"type:uuid;index" json:"donor_id"`
	CreatorID string    `gorm:"type:uuid;index;not null" json:"creator_id"`
	Quantity  int64     `gorm:"not null" json:"quantity"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (d *Donation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	return nil
}

// Content is a published piece of creator content. Only its existence matters here.
type Content struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatorID string    `gorm:"type:uuid;index;not null" json:"creator_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type UserMission struct {
	ID        string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string `gorm:"type:uuid;index;not null" json:"user_id"`
	MissionID string `gorm:"type:uuid;index" json:"mission_id"`
	Completed bool   `gorm:"not null;default:false" json:"completed"`
}

func (m *UserMission) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

type UserAchievement struct {
	ID            string `gorm:"primaryKey;type:uuid" json:"id"`
	UserID        string `gorm:"type:uuid;index;not null" json:"user_id"`
	AchievementID string `gorm:"type:uuid;index" json:"achievement_id"`
	Unlocked      bool   `gorm:"not null;default:false" json:"unlocked"`
}

func (a *UserAchievement) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
