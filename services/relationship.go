package services

import (
	"context"
	"errors"
	"time"

	"downtodine/apperrors"
	"downtodine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RelationshipService struct {
	DB *gorm.DB
}

func NewRelationshipService(db *gorm.DB) *RelationshipService {
	return &RelationshipService{DB: db}
}

type IncomingRequest struct {
	ID        int64             `json:"id"`
	From      models.PublicUser `json:"from"`
	CreatedAt time.Time         `json:"createdAt"`
}

type OutgoingRequest struct {
	ID        int64             `json:"id"`
	To        models.PublicUser `json:"to"`
	CreatedAt time.Time         `json:"createdAt"`
}

// addFriendPair writes both directions of a friendship inside tx. The
// OnConflict clause makes the union idempotent, so concurrent accepts
// between the same pair cannot duplicate rows.
func addFriendPair(tx *gorm.DB, a, b int64) error {
	pairs := []models.UserFriend{
		{UserID: a, FriendID: b},
		{UserID: b, FriendID: a},
	}
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&pairs).Error
}

func (s *RelationshipService) isFriend(ctx context.Context, userID, otherID int64) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.UserFriend{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&count).Error
	return count > 0, err
}

// SendRequest creates a pending request toward targetUsername. When the
// target already has a pending request toward the requester, that request
// is accepted instead and no new row is created (autoAccepted=true).
func (s *RelationshipService) SendRequest(ctx context.Context, requesterID int64, targetUsername string) (bool, error) {
	var target models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", targetUsername).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, apperrors.NotFound("User not found")
		}
		return false, err
	}
	if target.ID == requesterID {
		return false, apperrors.BadRequest("Cannot send request to yourself")
	}

	friends, err := s.isFriend(ctx, requesterID, target.ID)
	if err != nil {
		return false, err
	}
	if friends {
		return false, apperrors.Conflict("Already friends")
	}

	var reciprocal models.FriendRequest
	err = s.DB.WithContext(ctx).
		Where("from_id = ? AND to_id = ? AND status = ?", target.ID, requesterID, models.RequestPending).
		First(&reciprocal).Error
	if err == nil {
		err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := addFriendPair(tx, requesterID, target.ID); err != nil {
				return err
			}
			return tx.Model(&models.FriendRequest{}).
				Where("id = ? AND status = ?", reciprocal.ID, models.RequestPending).
				Update("status", models.RequestAccepted).Error
		})
		if err != nil {
			return false, err
		}
		publishFriendAccepted(ctx, requesterID, target.ID)
		return true, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	request := &models.FriendRequest{
		FromID: requesterID,
		ToID:   target.ID,
		Status: models.RequestPending,
	}
	if err := s.DB.WithContext(ctx).Create(request).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, apperrors.Conflict("Request already pending")
		}
		return false, err
	}
	return false, nil
}

func (s *RelationshipService) AcceptRequest(ctx context.Context, accepterID, requestID int64) error {
	request, err := s.pendingRequest(ctx, requestID, accepterID)
	if err != nil {
		return err
	}
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := addFriendPair(tx, request.FromID, request.ToID); err != nil {
			return err
		}
		return tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", request.ID, models.RequestPending).
			Update("status", models.RequestAccepted).Error
	})
	if err != nil {
		return err
	}
	publishFriendAccepted(ctx, request.FromID, request.ToID)
	return nil
}

func (s *RelationshipService) DeclineRequest(ctx context.Context, declinerID, requestID int64) error {
	request, err := s.pendingRequest(ctx, requestID, declinerID)
	if err != nil {
		return err
	}
	return s.DB.WithContext(ctx).Model(&models.FriendRequest{}).
		Where("id = ? AND status = ?", request.ID, models.RequestPending).
		Update("status", models.RequestDeclined).Error
}

// pendingRequest loads a request that must be pending and addressed to
// userID. Missing or settled requests are indistinguishable (404).
func (s *RelationshipService) pendingRequest(ctx context.Context, requestID, userID int64) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := s.DB.WithContext(ctx).First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Request not found")
		}
		return nil, err
	}
	if request.Status != models.RequestPending {
		return nil, apperrors.NotFound("Request not found")
	}
	if request.ToID != userID {
		return nil, apperrors.Forbidden("Not authorized")
	}
	return &request, nil
}

func (s *RelationshipService) ListRequests(ctx context.Context, userID int64) ([]IncomingRequest, []OutgoingRequest, error) {
	var requests []models.FriendRequest
	err := s.DB.WithContext(ctx).
		Where("(from_id = ? OR to_id = ?) AND status = ?", userID, userID, models.RequestPending).
		Order("id").
		Find(&requests).Error
	if err != nil {
		return nil, nil, err
	}

	counterparts, err := s.usersByID(ctx, counterpartIDs(requests, userID))
	if err != nil {
		return nil, nil, err
	}

	incoming := make([]IncomingRequest, 0, len(requests))
	outgoing := make([]OutgoingRequest, 0, len(requests))
	for _, r := range requests {
		if r.ToID == userID {
			incoming = append(incoming, IncomingRequest{ID: r.ID, From: counterparts[r.FromID], CreatedAt: r.CreatedAt})
		} else {
			outgoing = append(outgoing, OutgoingRequest{ID: r.ID, To: counterparts[r.ToID], CreatedAt: r.CreatedAt})
		}
	}
	return incoming, outgoing, nil
}

func counterpartIDs(requests []models.FriendRequest, userID int64) []int64 {
	ids := make([]int64, 0, len(requests))
	for _, r := range requests {
		if r.ToID == userID {
			ids = append(ids, r.FromID)
		} else {
			ids = append(ids, r.ToID)
		}
	}
	return ids
}

func (s *RelationshipService) usersByID(ctx context.Context, ids []int64) (map[int64]models.PublicUser, error) {
	result := make(map[int64]models.PublicUser, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		result[u.ID] = u.Public()
	}
	return result, nil
}

// AddFriendDirect is the request-free path: it unions both friend sets
// immediately. It maintains the same symmetry invariant as the accept path.
func (s *RelationshipService) AddFriendDirect(ctx context.Context, userID int64, username string) error {
	var target models.User
	if err := s.DB.WithContext(ctx).Where("username = ?", username).First(&target).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("User not found")
		}
		return err
	}
	if target.ID == userID {
		return apperrors.BadRequest("Cannot add yourself")
	}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return addFriendPair(tx, userID, target.ID)
	})
	if err != nil {
		return err
	}
	publishFriendAccepted(ctx, userID, target.ID)
	return nil
}

// RemoveFriend deletes both directions. Removing a non-friend is a no-op.
func (s *RelationshipService) RemoveFriend(ctx context.Context, userID, friendID int64) error {
	return s.DB.WithContext(ctx).
		Where("(user_id = ? AND friend_id = ?) OR (user_id = ? AND friend_id = ?)",
			userID, friendID, friendID, userID).
		Delete(&models.UserFriend{}).Error
}

func (s *RelationshipService) Friends(ctx context.Context, userID int64) ([]models.PublicUser, error) {
	var friends []models.User
	err := s.DB.WithContext(ctx).
		Table("users u").
		Joins("JOIN user_friends f ON f.friend_id = u.id").
		Where("f.user_id = ?", userID).
		Order("u.username").
		Select("u.id, u.username, u.email").
		Find(&friends).Error
	if err != nil {
		return nil, err
	}
	result := make([]models.PublicUser, 0, len(friends))
	for _, u := range friends {
		result = append(result, u.Public())
	}
	return result, nil
}

func (s *RelationshipService) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	ids := make([]int64, 0)
	err := s.DB.WithContext(ctx).Model(&models.UserFriend{}).
		Where("user_id = ?", userID).
		Pluck("friend_id", &ids).Error
	return ids, err
}
