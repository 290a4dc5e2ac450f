// Package store loads the acting user and the ownership facts of target records.
package store

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"ministry_hub/internal/authz"
	"ministry_hub/internal/models"
)

var ErrNotFound = errors.New("record not found")

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Principal is the acting user as loaded at the start of a request.
type Principal struct {
	User        *models.User
	Record      authz.ActorRecord
	MinistryIDs []string
}

// Context builds a decision context against res (nil for no resource).
func (p *Principal) Context(res *authz.ResourceFacts) authz.DecisionContext {
	return authz.NewDecisionContext(p.Record, p.MinistryIDs, res)
}

// Engine returns an engine for kind targeting res.
func (p *Principal) Engine(kind authz.Kind, res *authz.ResourceFacts) *authz.Engine {
	return authz.New(kind, p.Context(res))
}

// LoadPrincipal reads the user and its ministry memberships. It is never cached so that
// role changes apply to the very next request.
func LoadPrincipal(ctx context.Context, db *gorm.DB, userID string) (*Principal, error) {
	var user models.User
	if err := db.WithContext(ctx).Preload("Ministries").First(&user, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	ids := make([]string, 0, len(user.Ministries))
	for _, m := range user.Ministries {
		ids = append(ids, m.ID)
	}
	return &Principal{
		User: &user,
		Record: authz.ActorRecord{
			ID:               user.ID,
			Role:             user.Role,
			MinistryID:       models.Deref(user.MinistryID),
			MasterMinistryID: models.Deref(user.MasterMinistryID),
		},
		MinistryIDs: ids,
	}, nil
}

// Loader fetches a record by id together with its ownership facts.
type Loader func(ctx context.Context, db *gorm.DB, id string) (any, authz.ResourceFacts, error)

// Typed adapts a typed load function to a Loader.
func Typed[T any](fn func(context.Context, *gorm.DB, string) (*T, authz.ResourceFacts, error)) Loader {
	return func(ctx context.Context, db *gorm.DB, id string) (any, authz.ResourceFacts, error) {
		v, facts, err := fn(ctx, db, id)
		if err != nil {
			return nil, facts, err
		}
		return v, facts, nil
	}
}

// Scoped restricts q to rows whose column is inside scope. With several columns a row
// matches when any of them is.
func Scoped(q *gorm.DB, scope authz.ListScope, columns ...string) *gorm.DB {
	if scope.All {
		return q
	}
	if len(scope.MinistryIDs) == 0 || len(columns) == 0 {
		return q.Where("1 = 0")
	}
	if len(columns) == 1 {
		return q.Where(columns[0]+" IN ?", scope.MinistryIDs)
	}
	conds := make([]string, 0, len(columns))
	args := make([]any, 0, len(columns))
	for _, col := range columns {
		conds = append(conds, col+" IN ?")
		args = append(args, scope.MinistryIDs)
	}
	return q.Where("("+strings.Join(conds, " OR ")+")", args...)
}
