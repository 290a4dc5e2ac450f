package store

import (
	"context"

	"gorm.io/gorm"

	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
)

func LoadEvent(ctx context.Context, db *gorm.DB, id string) (*models.Event, authz.ResourceFacts, error) {
	var ev models.Event
	if err := db.WithContext(ctx).Preload("Leaders").First(&ev, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	return &ev, authz.ResourceFacts{MinistryID: ev.MinistryID, LeaderUserIDs: ev.LeaderIDs()}, nil
}

func LoadSmallGroup(ctx context.Context, db *gorm.DB, id string) (*models.SmallGroup, authz.ResourceFacts, error) {
	var g models.SmallGroup
	if err := db.WithContext(ctx).Preload("Leaders").First(&g, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	return &g, authz.ResourceFacts{MinistryID: g.MinistryID, LeaderUserIDs: g.LeaderIDs()}, nil
}

// LoadMeeting answers with the facts of the meeting's small group.
func LoadMeeting(ctx context.Context, db *gorm.DB, id string) (*models.Meeting, authz.ResourceFacts, error) {
	var m models.Meeting
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	_, facts, err := LoadSmallGroup(ctx, db, m.SmallGroupID)
	if err != nil {
		return nil, authz.ResourceFacts{}, err
	}
	return &m, facts, nil
}

// LoadMember treats the leaders of the member's small group as the member's leaders.
func LoadMember(ctx context.Context, db *gorm.DB, id string) (*models.Member, authz.ResourceFacts, error) {
	var m models.Member
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	facts := authz.ResourceFacts{MinistryID: m.MinistryID}
	if m.SmallGroupID != nil {
		leaders, err := groupLeaderIDs(ctx, db, *m.SmallGroupID)
		if err != nil {
			return nil, authz.ResourceFacts{}, err
		}
		facts.LeaderUserIDs = leaders
	}
	return &m, facts, nil
}

func LoadMinistry(ctx context.Context, db *gorm.DB, id string) (*models.Ministry, authz.ResourceFacts, error) {
	var m models.Ministry
	if err := db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	return &m, authz.ResourceFacts{MinistryID: m.ID}, nil
}

// LoadUser scopes a user account to the ministry it administers, else the one it leads in.
// The account's role travels with the facts; changing the account needs the right to grant it.
func LoadUser(ctx context.Context, db *gorm.DB, id string) (*models.User, authz.ResourceFacts, error) {
	var u models.User
	if err := db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	ministry := models.Deref(u.MasterMinistryID)
	if ministry == "" {
		ministry = models.Deref(u.MinistryID)
	}
	return &u, authz.ResourceFacts{MinistryID: ministry, AccountRole: u.Role}, nil
}

// LoadTransaction gives event-bound entries the leaders of their event.
func LoadTransaction(ctx context.Context, db *gorm.DB, id string) (*models.Transaction, authz.ResourceFacts, error) {
	var t models.Transaction
	if err := db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, authz.ResourceFacts{}, notFound(err)
	}
	facts := authz.ResourceFacts{MinistryID: t.MinistryID}
	if t.EventID != nil {
		var leaders []string
		err := db.WithContext(ctx).Model(&models.EventLeader{}).
			Where("event_id = ?", *t.EventID).
			Pluck("user_id", &leaders).Error
		if err != nil {
			return nil, authz.ResourceFacts{}, err
		}
		facts.LeaderUserIDs = leaders
	}
	return &t, facts, nil
}

func groupLeaderIDs(ctx context.Context, db *gorm.DB, groupID string) ([]string, error) {
	var ids []string
	err := db.WithContext(ctx).Model(&models.SmallGroupLeader{}).
		Where("small_group_id = ?", groupID).
		Pluck("user_id", &ids).Error
	return ids, err
}
