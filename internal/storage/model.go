package storage

import "time"

// UpdateFunc receives the stored value (found=false when absent) and returns the value to store.
type UpdateFunc = func(current string, found bool) (string, error)

// stateEntry is the row shape shared by the SQL backends.
type stateEntry struct {
	Key       string `gorm:"primaryKey;column:state_key;size:255"`
	Value     string `gorm:"column:state_value;type:text"`
	UpdatedAt time.Time
}

func (stateEntry) TableName() string {
	return "portal_state"
}
