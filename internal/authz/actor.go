package authz

import "strings"

// Role is the platform role stored on a user.
type Role string

const (
	RoleAdmin  Role = "ADMIN"
	RoleMaster Role = "MASTER"
	RoleLeader Role = "LEADER"
)

// ParseRole reports whether s names a known role. Matching is exact: case and
// surrounding whitespace both count.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	switch r {
	case RoleAdmin, RoleMaster, RoleLeader:
		return r, true
	}
	return r, false
}

// ActorRecord is the projection of a user row the engine needs.
type ActorRecord struct {
	ID               string
	Role             string
	MinistryID       string
	MasterMinistryID string
}

// Actor is one of Admin, Master, Leader or Unknown.
type Actor interface {
	ActorID() string
	ActorRole() Role
	isActor()
}

// Admin is unconstrained by ministry.
type Admin struct {
	ID string
}

// Master administers exactly one ministry. A MASTER's ministryId, if any, plays no part
// in its authority.
type Master struct {
	ID         string
	MinistryID string
}

// Leader belongs to one or more ministries.
type Leader struct {
	ID          string
	MinistryIDs []string
}

// Unknown carries a role string the engine does not recognise. It is denied everything.
type Unknown struct {
	ID       string
	RoleName string
}

func (a Admin) ActorID() string { return a.ID }
func (a Master) ActorID() string { return a.ID }
func (a Leader) ActorID() string { return a.ID }
func (a Unknown) ActorID() string { return a.ID }
func (Admin) ActorRole() Role { return RoleAdmin }
func (Master) ActorRole() Role { return RoleMaster }
func (Leader) ActorRole() Role { return RoleLeader }
func (a Unknown) ActorRole() Role { return Role(a.RoleName) }
func (Admin) isActor() {}
func (Master) isActor() {}
func (Leader) isActor() {}
func (Unknown) isActor() {}

// Member reports whether ministryID is one of the leader's ministries.
func (a Leader) Member(ministryID string) bool {
	if ministryID == "" {
		return false
	}
	for _, id := range a.MinistryIDs {
		if id == ministryID {
			return true
		}
	}
	return false
}

// Administers reports whether ministryID is the master's ministry.
func (a Master) Administers(ministryID string) bool {
	return a.MinistryID != "" && a.MinistryID == ministryID
}

// NewActor resolves rec into its Actor variant. ministryIDs are the ministries the user
// belongs to besides rec.MinistryID.
func NewActor(rec ActorRecord, ministryIDs []string) Actor {
	role, ok := ParseRole(rec.Role)
	if !ok {
		return Unknown{ID: rec.ID, RoleName: rec.Role}
	}
	switch role {
	case RoleAdmin:
		return Admin{ID: rec.ID}
	case RoleMaster:
		return Master{ID: rec.ID, MinistryID: strings.TrimSpace(rec.MasterMinistryID)}
	default:
		return Leader{ID: rec.ID, MinistryIDs: dedupe(append([]string{rec.MinistryID}, ministryIDs...))}
	}
}

// dedupe keeps the first occurrence of every non-empty id.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
