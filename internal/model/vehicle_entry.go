package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VehicleType string

const (
	VehicleTypeTwoWheeler  VehicleType = "2-Wheeler"
	VehicleTypeFourWheeler VehicleType = "4-Wheeler"
	VehicleTypeOthers      VehicleType = "Others"
)

// ParseVehicleType validates a raw type value against the closed enumeration.
func ParseVehicleType(raw string) (VehicleType, bool) {
	switch VehicleType(raw) {
	case VehicleTypeTwoWheeler, VehicleTypeFourWheeler, VehicleTypeOthers:
		return VehicleType(raw), true
	}
	return "", false
}

// VehicleEntry is a single gate log record. Entries are insert-only: there is
// no update or delete path once a vehicle has been logged.
type VehicleEntry struct {
	ID          uuid.UUID   `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"_id"`
	PlateNumber string      `gorm:"type:varchar(32);not null;index" json:"plateNumber"`
	VehicleType VehicleType `gorm:"type:vehicle_type;not null" json:"vehicleType"`
	PhoneNumber *string     `gorm:"type:varchar(20)" json:"phoneNumber"`
	EntryTime   time.Time   `gorm:"not null;index" json:"entryTime"`
	RecordedBy  uuid.UUID   `gorm:"type:uuid;not null;index" json:"recordedBy"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"createdAt"`
}

func (VehicleEntry) TableName() string {
	return "vehicle_entries"
}

func (e *VehicleEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.EntryTime.IsZero() {
		e.EntryTime = time.Now()
	}
	return nil
}
