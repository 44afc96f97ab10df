package services

import (
	"context"
	"errors"
	"sort"

	"downtodine/apperrors"
	"downtodine/models"

	"gorm.io/gorm"
)

// OverlapService is a stateless computation over current store contents:
// it re-reads availability on every call and keeps no cache.
type OverlapService struct {
	DB           *gorm.DB
	Relationship *RelationshipService
	Availability *AvailabilityService
}

func NewOverlapService(db *gorm.DB) *OverlapService {
	return &OverlapService{
		DB:           db,
		Relationship: NewRelationshipService(db),
		Availability: NewAvailabilityService(db),
	}
}

type UserOverlap struct {
	Date         string            `json:"date"`
	MyHours      models.HourSet    `json:"myHours"`
	Friend       models.PublicUser `json:"friend"`
	Hours        models.HourSet    `json:"hours"`
	Overlap      models.HourSet    `json:"overlap"`
	OverlapCount int               `json:"overlapCount"`
}

type FriendOverlap struct {
	FriendID     int64          `json:"friendId"`
	Username     string         `json:"username"`
	Hours        models.HourSet `json:"hours"`
	Overlap      models.HourSet `json:"overlap"`
	OverlapCount int            `json:"overlapCount"`
}

type FriendsOverlap struct {
	Date    string          `json:"date"`
	MyHours models.HourSet  `json:"myHours"`
	Friends []FriendOverlap `json:"friends"`
}

// intersect returns the sorted intersection of two hour sets.
func intersect(a, b models.HourSet) models.HourSet {
	inA := make(map[int]bool, len(a))
	for _, h := range a {
		inA[h] = true
	}
	out := make(models.HourSet, 0, len(b))
	for _, h := range b {
		if inA[h] {
			out = append(out, h)
		}
	}
	sort.Ints(out)
	return out
}

// WithUser computes the viewer's overlap against one user. Friendship is
// not checked here; route-level authorization decides who may be queried.
func (s *OverlapService) WithUser(ctx context.Context, viewerID, targetID int64) (*UserOverlap, error) {
	var target models.User
	if err := s.DB.WithContext(ctx).First(&target, targetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("User not found")
		}
		return nil, err
	}

	date, myHours, err := s.Availability.GetToday(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	_, theirHours, err := s.Availability.GetToday(ctx, targetID)
	if err != nil {
		return nil, err
	}

	overlap := intersect(myHours, theirHours)
	return &UserOverlap{
		Date:         date,
		MyHours:      myHours,
		Friend:       target.Public(),
		Hours:        theirHours,
		Overlap:      overlap,
		OverlapCount: len(overlap),
	}, nil
}

// WithAllFriends ranks the viewer's friends by overlap size. Only friends
// that have an availability row for today appear: a friend with an empty
// row is included with zero overlap, a friend with no row is omitted.
func (s *OverlapService) WithAllFriends(ctx context.Context, viewerID int64) (*FriendsOverlap, error) {
	date, myHours, err := s.Availability.GetToday(ctx, viewerID)
	if err != nil {
		return nil, err
	}

	result := &FriendsOverlap{Date: date, MyHours: myHours, Friends: []FriendOverlap{}}

	friendIDs, err := s.Relationship.FriendIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	if len(friendIDs) == 0 {
		return result, nil
	}

	var records []models.Availability
	err = s.DB.WithContext(ctx).
		Where("user_id IN ? AND date = ?", friendIDs, date).
		Find(&records).Error
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return result, nil
	}

	withRecords := make([]int64, 0, len(records))
	for _, r := range records {
		withRecords = append(withRecords, r.UserID)
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", withRecords).Find(&users).Error; err != nil {
		return nil, err
	}
	usernames := make(map[int64]string, len(users))
	for _, u := range users {
		usernames[u.ID] = u.Username
	}

	for _, r := range records {
		hours := r.Hours
		if hours == nil {
			hours = models.HourSet{}
		}
		sort.Ints(hours)
		overlap := intersect(myHours, hours)
		result.Friends = append(result.Friends, FriendOverlap{
			FriendID:     r.UserID,
			Username:     usernames[r.UserID],
			Hours:        hours,
			Overlap:      overlap,
			OverlapCount: len(overlap),
		})
	}

	// Ranking contract: overlap size descending, username ascending on ties.
	sort.SliceStable(result.Friends, func(i, j int) bool {
		if result.Friends[i].OverlapCount != result.Friends[j].OverlapCount {
			return result.Friends[i].OverlapCount > result.Friends[j].OverlapCount
		}
		return result.Friends[i].Username < result.Friends[j].Username
	})

	return result, nil
}
