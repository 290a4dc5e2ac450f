package authz

// EventPermissions names the event catalogue the way event handlers read it.
type EventPermissions struct {
	*Engine
}

// ForEvent returns the event permissions for ctx.
func ForEvent(ctx DecisionContext) EventPermissions {
	return EventPermissions{Engine: New(KindEvent, ctx)}
}

func (p EventPermissions) CanListEvents() bool { return p.CanList() }
func (p EventPermissions) CanViewEvent() bool { return p.CanView() }
func (p EventPermissions) CanCreateEvent(ministryID string) bool { return p.CanCreate(ministryID) }
func (p EventPermissions) CanEditEvent() bool { return p.CanEdit() }
func (p EventPermissions) CanDeleteEvent() bool { return p.CanDelete() }
func (p EventPermissions) CanManageEventLeaders() bool { return p.CanManageLeaders() }
func (p EventPermissions) CanRegisterForEvent() bool { return p.CanRegister() }
func (p EventPermissions) CanGiveFeedback() bool { return p.CanFeedback() }
func (p EventPermissions) CanViewStatistics() bool { return p.CanViewStats() }
func (p EventPermissions) CanManageStatus() bool { return p.CanChangeStatus() }
