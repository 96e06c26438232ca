package model

import "time"

// KVEntry backs the key-value store on SQL databases.
type KVEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;type:varchar(255)" json:"key"`
	Value     []byte    `gorm:"not null" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (KVEntry) TableName() string {
	return "kv_entries"
}
