package models

import (
	"time"

	"gorm.io/datatypes"
)

// PermissionDefinition is the persisted copy of a catalog entry.
type PermissionDefinition struct {
	ID          string         `gorm:"primaryKey;size:64" json:"id"`
	Module      string         `gorm:"not null;index" json:"module"`
	Description string         `json:"description"`
	DependsOn   datatypes.JSON `json:"depends_on"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// TierPermission records that a tier grants a permission.
type TierPermission struct {
	Tier         string    `gorm:"primaryKey;size:16" json:"tier"`
	PermissionID string    `gorm:"primaryKey;size:64" json:"permission_id"`
	Inherited    bool      `gorm:"not null;default:false" json:"inherited"`
	CreatedAt    time.Time `json:"created_at"`
}
