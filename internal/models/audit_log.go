package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records privileged changes such as subscription updates.
type AuditLog struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"`
	ActorSubject string         `gorm:"index" json:"actor_subject"`
	Action       string         `gorm:"not null;index" json:"action"`
	Resource     string         `gorm:"index" json:"resource"`
	Result       string         `gorm:"not null" json:"result"`
	IPAddress    string         `json:"ip_address"`
	UserAgent    string         `json:"user_agent"`
	RequestID    string         `gorm:"size:128" json:"request_id,omitempty"`
	Metadata     datatypes.JSON `json:"metadata,omitempty"`
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
