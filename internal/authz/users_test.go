package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEngine_CanAssignRole(t *testing.T) {
	t.Parallel()
	engine := func(role string) *Engine {
		return New(KindUser, NewDecisionContext(ActorRecord{ID: "U", Role: role, MinistryID: "M1", MasterMinistryID: "M1"}, nil, nil))
	}

	for _, r := range []string{"ADMIN", "MASTER", "LEADER"} {
		assert.True(t, engine("ADMIN").CanAssignRole(r), r)
	}
	assert.False(t, engine("ADMIN").CanAssignRole("PASTOR"))

	assert.True(t, engine("MASTER").CanAssignRole("LEADER"))
	assert.False(t, engine("MASTER").CanAssignRole("MASTER"))
	assert.False(t, engine("MASTER").CanAssignRole("ADMIN"))

	assert.False(t, engine("LEADER").CanAssignRole("LEADER"))
	assert.False(t, engine("PASTOR").CanAssignRole("LEADER"))
}
