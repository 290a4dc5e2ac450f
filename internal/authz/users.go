package authz

// CanAssignRole reports whether the actor may give role to an account. ADMIN grants any
// role, MASTER grants LEADER only, and LEADER grants nothing.
func (e *Engine) CanAssignRole(role string) bool {
	r, ok := ParseRole(role)
	if !ok {
		return false
	}
	switch e.ctx.Actor().(type) {
	case Admin:
		return true
	case Master:
		return r == RoleLeader
	default:
		return false
	}
}
