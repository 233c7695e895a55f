package models

import (
	"time"
)

// VPS is a tracked virtual private server.
//
// Optional columns use pointers so that a cleared value is stored as NULL,
// never as an empty string or zero date. Location, when filled by the
// resolver, starts with a 2-letter country code and a space ("RU Russia,
// Moscow"); the list view derives the flag icon from that prefix.
type VPS struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	Name           string     `gorm:"not null" json:"name"`
	Provider       string     `json:"provider"`
	ProviderDomain string     `json:"provider_domain"`
	IP             *string    `json:"ip"`
	Location       *string    `json:"location"`
	RenewalDate    *time.Time `gorm:"type:date" json:"renewal_date"`
	MonthlyCost    *float64   `json:"monthly_cost"`
	Currency       string     `json:"currency"`
	Notes          string     `json:"notes"`
}

func (VPS) TableName() string {
	return "vps"
}
