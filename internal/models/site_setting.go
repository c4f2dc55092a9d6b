package models

import (
	"encoding/json"
	"time"
)

// SiteSetting is one key of site-wide configuration editable by admins.
type SiteSetting struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt time.Time       `json:"updated_at"`
}
