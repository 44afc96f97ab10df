package services

import (
	"context"
	"strings"

	"downtodine/models"

	"gorm.io/gorm"
)

const (
	searchMinQueryLen  = 2
	searchDefaultLimit = 10
	searchMaxLimit     = 25
)

type SearchService struct {
	DB *gorm.DB
}

func NewSearchService(db *gorm.DB) *SearchService {
	return &SearchService{DB: db}
}

type SearchResult struct {
	ID              int64  `json:"id"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	AlreadyFriend   bool   `json:"alreadyFriend"`
	PendingOutgoing bool   `json:"pendingOutgoing"`
	PendingIncoming bool   `json:"pendingIncoming"`
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	return strings.ReplaceAll(s, `_`, `\_`)
}

// SearchUsers does a case-insensitive prefix match on username. Queries
// shorter than two characters return an empty result set, not an error.
// Each candidate is annotated against the requester's friend set and the
// pending requests touching the requester.
func (s *SearchService) SearchUsers(ctx context.Context, requesterID int64, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if len(query) < searchMinQueryLen {
		return []SearchResult{}, nil
	}
	if limit <= 0 {
		limit = searchDefaultLimit
	}
	if limit > searchMaxLimit {
		limit = searchMaxLimit
	}

	var candidates []models.User
	pattern := escapeLike(strings.ToLower(query)) + "%"
	err := s.DB.WithContext(ctx).
		Where(`lower(username) LIKE ? ESCAPE '\' AND id != ?`, pattern, requesterID).
		Order("username").
		Limit(limit).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}

	friendIDs := make(map[int64]bool)
	var ids []int64
	err = s.DB.WithContext(ctx).Model(&models.UserFriend{}).
		Where("user_id = ?", requesterID).
		Pluck("friend_id", &ids).Error
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		friendIDs[id] = true
	}

	var pendings []models.FriendRequest
	err = s.DB.WithContext(ctx).
		Where("(from_id = ? OR to_id = ?) AND status = ?", requesterID, requesterID, models.RequestPending).
		Find(&pendings).Error
	if err != nil {
		return nil, err
	}
	outgoingTo := make(map[int64]bool)
	incomingFrom := make(map[int64]bool)
	for _, r := range pendings {
		if r.FromID == requesterID {
			outgoingTo[r.ToID] = true
		} else {
			incomingFrom[r.FromID] = true
		}
	}

	results := make([]SearchResult, 0, len(candidates))
	for _, u := range candidates {
		results = append(results, SearchResult{
			ID:              u.ID,
			Username:        u.Username,
			Email:           u.Email,
			AlreadyFriend:   friendIDs[u.ID],
			PendingOutgoing: outgoingTo[u.ID],
			PendingIncoming: incomingFrom[u.ID],
		})
	}
	return results, nil
}
