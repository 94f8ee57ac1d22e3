package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type NotificationType string

const (
	NotificationTypeSystem NotificationType = "sistema"
	NotificationTypeAlert  NotificationType = "alerta"
)

// Notification is an inbox entry shown to a user (admins, for fund alerts).
type Notification struct {
	ID        string           `gorm:"primaryKey;type:uuid" json:"id"`
	UserID    string           `gorm:"type:uuid;index;not null" json:"user_id"`
	Title     string           `gorm:"not null" json:"title"`
	Message   string           `gorm:"type:text;not null" json:"message"`
	Type      NotificationType `gorm:"type:varchar(16);not null;default:'sistema'" json:"type"`
	Read      bool             `gorm:"not null;default:false;index" json:"read"`
	CreatedAt time.Time        `json:"created_at" gorm:"autoCreateTime"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}

// Migrate creates or updates the schema and drops indexes replaced since.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(All()...); err != nil {
		return err
	}
	if db.Migrator().HasIndex(&Fund{}, legacySlotIndex) {
		if err := db.Migrator().DropIndex(&Fund{}, legacySlotIndex); err != nil {
			return err
		}
	}
	return nil
}

// All lists every model owned by this service, in migration order.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Creator{},
		&Donation{},
		&Content{},
		&UserMission{},
		&UserAchievement{},
		&Fund{},
		&PartnerRepasse{},
		&Notification{},
	}
}
