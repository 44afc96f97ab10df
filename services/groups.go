package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"downtodine/apperrors"
	"downtodine/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupService struct {
	DB *gorm.DB
}

func NewGroupService(db *gorm.DB) *GroupService {
	return &GroupService{DB: db}
}

type GroupSummary struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Owner        *models.PublicUser `json:"owner"`
	MembersCount int                `json:"membersCount"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

type GroupDetail struct {
	ID        int64               `json:"id"`
	Name      string              `json:"name"`
	Owner     *models.PublicUser  `json:"owner"`
	Members   []models.PublicUser `json:"members"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// List returns the groups the user is a member of.
func (s *GroupService) List(ctx context.Context, userID int64) ([]GroupSummary, error) {
	var groups []models.Group
	err := s.DB.WithContext(ctx).
		Joins("JOIN group_members gm ON gm.group_id = groups.id").
		Where("gm.user_id = ?", userID).
		Order("groups.id").
		Find(&groups).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]GroupSummary, 0, len(groups))
	for _, g := range groups {
		owner, err := s.publicUser(ctx, g.OwnerID)
		if err != nil {
			return nil, err
		}
		var count int64
		if err := s.DB.WithContext(ctx).Model(&models.GroupMember{}).
			Where("group_id = ?", g.ID).Count(&count).Error; err != nil {
			return nil, err
		}
		summaries = append(summaries, GroupSummary{
			ID:           g.ID,
			Name:         g.Name,
			Owner:        owner,
			MembersCount: int(count),
			CreatedAt:    g.CreatedAt,
			UpdatedAt:    g.UpdatedAt,
		})
	}
	return summaries, nil
}

// Create makes a group; the owner becomes a member automatically.
func (s *GroupService) Create(ctx context.Context, userID int64, name string) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.BadRequest("Name is required")
	}
	group := &models.Group{Name: name, OwnerID: userID}
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(group).Error; err != nil {
			return err
		}
		return tx.Create(&models.GroupMember{GroupID: group.ID, UserID: userID}).Error
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// Get returns full detail; only members may look inside.
func (s *GroupService) Get(ctx context.Context, userID, groupID int64) (*GroupDetail, error) {
	group, err := s.group(ctx, groupID)
	if err != nil {
		return nil, err
	}

	var memberIDs []int64
	err = s.DB.WithContext(ctx).Model(&models.GroupMember{}).
		Where("group_id = ?", groupID).
		Order("user_id").
		Pluck("user_id", &memberIDs).Error
	if err != nil {
		return nil, err
	}

	isMember := false
	for _, id := range memberIDs {
		if id == userID {
			isMember = true
			break
		}
	}
	if !isMember {
		return nil, apperrors.Forbidden("Not a member")
	}

	var users []models.User
	if err := s.DB.WithContext(ctx).Where("id IN ?", memberIDs).Order("id").Find(&users).Error; err != nil {
		return nil, err
	}
	members := make([]models.PublicUser, 0, len(users))
	for _, u := range users {
		members = append(members, u.Public())
	}

	owner, err := s.publicUser(ctx, group.OwnerID)
	if err != nil {
		return nil, err
	}
	return &GroupDetail{
		ID:        group.ID,
		Name:      group.Name,
		Owner:     owner,
		Members:   members,
		CreatedAt: group.CreatedAt,
		UpdatedAt: group.UpdatedAt,
	}, nil
}

// Join is open membership; joining twice is a no-op.
func (s *GroupService) Join(ctx context.Context, userID, groupID int64) error {
	if _, err := s.group(ctx, groupID); err != nil {
		return err
	}
	member := models.GroupMember{GroupID: groupID, UserID: userID}
	return s.DB.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&member).Error
}

func (s *GroupService) Leave(ctx context.Context, userID, groupID int64) error {
	if _, err := s.group(ctx, groupID); err != nil {
		return err
	}
	return s.DB.WithContext(ctx).
		Where("group_id = ? AND user_id = ?", groupID, userID).
		Delete(&models.GroupMember{}).Error
}

func (s *GroupService) group(ctx context.Context, groupID int64) (*models.Group, error) {
	var group models.Group
	if err := s.DB.WithContext(ctx).First(&group, groupID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("Group not found")
		}
		return nil, err
	}
	return &group, nil
}

func (s *GroupService) publicUser(ctx context.Context, userID int64) (*models.PublicUser, error) {
	var user models.User
	if err := s.DB.WithContext(ctx).First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	pub := user.Public()
	return &pub, nil
}
