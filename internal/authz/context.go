package authz

import "strings"

// ResourceFacts are the ownership facts of the record being acted on, loaded by the caller.
type ResourceFacts struct {
	MinistryID    string
	LeaderUserIDs []string
	// AccountRole is the role of the target when the resource is a user account.
	AccountRole string
}

// DecisionContext is built fresh for every check and never persisted. The engine reads
// the exported fields on every decision, so editing a field changes the outcome.
type DecisionContext struct {
	UserID             string
	Role               Role
	UserMinistryIDs    []string
	MasterMinistryID   string
	HasResource        bool
	ResourceMinistryID string
	ResourceLeaderIDs  []string
	ResourceRole       Role
	IsResourceLeader   bool
}

// NewDecisionContext combines the acting user with the optional target resource.
// actorMinistryIDs may repeat ids or include actor.MinistryID; the result is deduplicated.
func NewDecisionContext(actor ActorRecord, actorMinistryIDs []string, resource *ResourceFacts) DecisionContext {
	ctx := DecisionContext{
		UserID:           actor.ID,
		Role:             Role(actor.Role),
		UserMinistryIDs:  dedupe(append([]string{actor.MinistryID}, actorMinistryIDs...)),
		MasterMinistryID: strings.TrimSpace(actor.MasterMinistryID),
	}
	return ctx.WithResource(resource)
}

// Actor resolves the actor variant from the current field values.
func (c DecisionContext) Actor() Actor {
	return NewActor(ActorRecord{
		ID:               c.UserID,
		Role:             string(c.Role),
		MasterMinistryID: c.MasterMinistryID,
	}, c.UserMinistryIDs)
}

// WithResource returns a copy of c targeting another resource.
func (c DecisionContext) WithResource(resource *ResourceFacts) DecisionContext {
	c.HasResource = resource != nil
	c.ResourceMinistryID = ""
	c.ResourceLeaderIDs = nil
	c.ResourceRole = ""
	c.IsResourceLeader = false
	if resource != nil {
		c.ResourceMinistryID = resource.MinistryID
		c.ResourceLeaderIDs = dedupe(resource.LeaderUserIDs)
		c.ResourceRole = Role(resource.AccountRole)
		c.IsResourceLeader = contains(c.ResourceLeaderIDs, c.UserID)
	}
	return c
}

func contains(ids []string, id string) bool {
	if id == "" {
		return false
	}
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
