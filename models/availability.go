package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// HourSet is a de-duplicated set of hour-of-day slots (0..23), stored as a
// JSON array so the column works on both postgres and sqlite.
type HourSet []int

func (h HourSet) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]int(h))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (h *HourSet) Scan(value interface{}) error {
	if value == nil {
		*h = HourSet{}
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into HourSet", value)
	}
	if len(data) == 0 {
		*h = HourSet{}
		return nil
	}
	return json.Unmarshal(data, (*[]int)(h))
}

// Availability holds one user's hour slots for one UTC calendar day.
// At most one row exists per (user, date); writes go through upserts.
type Availability struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index;uniqueIndex:uniq_user_date" json:"user_id"`
	Date      string    `gorm:"size:10;uniqueIndex:uniq_user_date" json:"date"`
	Hours     HourSet   `gorm:"type:text" json:"hours"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Availability) TableName() string {
	return "availability"
}

// TodayUTC is the single "today" used by every availability operation.
// Clients never supply a date.
func TodayUTC() string {
	return time.Now().UTC().Format("2006-01-02")
}
