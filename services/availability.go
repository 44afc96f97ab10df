package services

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"

	"downtodine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AvailabilityService struct {
	DB *gorm.DB
}

func NewAvailabilityService(db *gorm.DB) *AvailabilityService {
	return &AvailabilityService{DB: db}
}

// normalizeHours coerces raw JSON values to integers, drops anything
// outside [0,23], de-duplicates and sorts ascending. Invalid entries are
// discarded silently, never rejected.
func normalizeHours(raw []interface{}) models.HourSet {
	seen := make(map[int]bool, len(raw))
	hours := make(models.HourSet, 0, len(raw))
	for _, v := range raw {
		h, ok := coerceHour(v)
		if !ok || h < 0 || h > 23 {
			continue
		}
		if seen[h] {
			continue
		}
		seen[h] = true
		hours = append(hours, h)
	}
	sort.Ints(hours)
	return hours
}

func coerceHour(v interface{}) (int, bool) {
	switch t := v.(type) {
	case float64:
		return int(t), true
	case int:
		return t, true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// GetToday returns the stored hour set for the current UTC day. A missing
// row reads as an empty set, not an error.
func (s *AvailabilityService) GetToday(ctx context.Context, userID int64) (string, models.HourSet, error) {
	date := models.TodayUTC()
	var record models.Availability
	err := s.DB.WithContext(ctx).
		Where("user_id = ? AND date = ?", userID, date).
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return date, models.HourSet{}, nil
		}
		return date, nil, err
	}
	hours := record.Hours
	if hours == nil {
		hours = models.HourSet{}
	}
	sort.Ints(hours)
	return date, hours, nil
}

// SetToday replaces today's hour set wholesale via a single upsert, so the
// one-row-per-(user,date) invariant holds under concurrent writes.
func (s *AvailabilityService) SetToday(ctx context.Context, userID int64, raw []interface{}) (string, models.HourSet, error) {
	date := models.TodayUTC()
	hours := normalizeHours(raw)

	record := models.Availability{UserID: userID, Date: date, Hours: hours}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"hours", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return date, nil, err
	}
	publishAvailabilitySet(ctx, userID, date, hours)
	return date, hours, nil
}

// ClearToday upserts an empty set. It succeeds whether or not a row existed.
func (s *AvailabilityService) ClearToday(ctx context.Context, userID int64) (string, error) {
	date := models.TodayUTC()
	record := models.Availability{UserID: userID, Date: date, Hours: models.HourSet{}}
	err := s.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"hours", "updated_at"}),
	}).Create(&record).Error
	if err != nil {
		return date, err
	}
	publishAvailabilitySet(ctx, userID, date, models.HourSet{})
	return date, nil
}
