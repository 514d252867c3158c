package domain

import "time"

// Device is a Firebase Cloud Messaging registration that receives status
// change and follow-up notifications
type Device struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Token      string    `json:"-" gorm:"uniqueIndex;not null"` // Don't expose token in JSON
	DeviceInfo string    `json:"device_info"`                   // Browser/device metadata
	Subject    string    `json:"subject" gorm:"index"`          // token subject that registered it
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
