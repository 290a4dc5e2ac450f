// Package authz decides whether an actor may act on a ministry-owned resource.
//
// Decisions are pure functions of a DecisionContext. ADMIN is allowed everything,
// MASTER everything inside its one ministry, and LEADER reads inside its ministries
// but mutates only resources it is named a leader of.
package authz

// Reason explains a decision. Handlers map it to a response; they never re-derive it.
type Reason string

const (
	ReasonAdmin          Reason = "admin"
	ReasonMinistryMaster Reason = "ministry_master"
	ReasonMinistryMember Reason = "ministry_member"
	ReasonResourceLeader Reason = "resource_leader"

	ReasonOutsideMinistry   Reason = "outside_ministry"
	ReasonNotResourceLeader Reason = "not_resource_leader"
	ReasonRoleNotAllowed    Reason = "role_not_allowed"
	ReasonUnknownRole       Reason = "unknown_role"
	ReasonUnknownAction     Reason = "unknown_action"
)

// Decision is the outcome of one check.
type Decision struct {
	Allowed bool
	Reason  Reason
	Kind    Kind
	Action  Action
}

func allow(r Reason) Decision { return Decision{Allowed: true, Reason: r} }
func deny(r Reason) Decision { return Decision{Allowed: false, Reason: r} }

// ListScope is the set of ministries a listing must be restricted to.
// All means no restriction; an empty MinistryIDs with All false means nothing is visible.
type ListScope struct {
	All         bool
	MinistryIDs []string
}

// Engine answers the permission catalogue for one resource kind and one context.
type Engine struct {
	kind Kind
	ctx  DecisionContext
}

// New returns an engine for kind bound to ctx.
func New(kind Kind, ctx DecisionContext) *Engine {
	return &Engine{kind: kind, ctx: ctx}
}

// Context returns the bound decision context.
func (e *Engine) Context() DecisionContext { return e.ctx }

// Kind returns the resource kind the engine decides for.
func (e *Engine) Kind() Kind { return e.kind }

// Decide evaluates action against the bound resource. For ActionCreate the resource's
// ministry is the target ministry.
func (e *Engine) Decide(action Action) Decision {
	return e.decide(action, e.ctx.ResourceMinistryID)
}

// DecideCreate evaluates creating a resource inside ministryID.
func (e *Engine) DecideCreate(ministryID string) Decision {
	return e.decide(ActionCreate, ministryID)
}

func (e *Engine) decide(action Action, target string) Decision {
	if e == nil {
		panic("authz: nil engine")
	}
	if _, ok := ParseAction(string(action)); !ok {
		d := deny(ReasonUnknownAction)
		d.Kind, d.Action = e.kind, action
		return d
	}

	var d Decision
	switch a := e.ctx.Actor().(type) {
	case Admin:
		d = allow(ReasonAdmin)
	case Master, Leader:
		if adminOnly[e.kind][canonical(action)] {
			d = deny(ReasonRoleNotAllowed)
			break
		}
		if e.kind == KindUser && !e.mayTouchAccount(canonical(action)) {
			d = deny(ReasonRoleNotAllowed)
			break
		}
		d = e.decideScoped(a, canonical(action), target)
	default:
		d = deny(ReasonUnknownRole)
	}
	d.Kind, d.Action = e.kind, action
	return d
}

func (e *Engine) decideScoped(actor Actor, action Action, target string) Decision {
	switch a := actor.(type) {
	case Master:
		return e.decideMaster(a, action, target)
	case Leader:
		return e.decideLeader(a, action, target)
	}
	return deny(ReasonUnknownRole)
}

func (e *Engine) decideMaster(a Master, action Action, target string) Decision {
	switch action {
	case ActionList:
		return allow(ReasonMinistryMaster)
	case ActionViewStats:
		// Aggregate stats are open; stats of one resource stay inside the ministry.
		if !e.ctx.HasResource {
			return allow(ReasonMinistryMaster)
		}
		return masterScoped(a, e.ctx.ResourceMinistryID)
	case ActionCreate:
		return masterScoped(a, target)
	default:
		return masterScoped(a, e.ctx.ResourceMinistryID)
	}
}

// mayTouchAccount guards user accounts: changing one needs the right to grant its
// current role, so nobody below ADMIN acts on an ADMIN or a peer MASTER.
func (e *Engine) mayTouchAccount(action Action) bool {
	switch action {
	case ActionList, ActionView, ActionCreate, ActionViewStats:
		return true
	}
	return e.CanAssignRole(string(e.ctx.ResourceRole))
}

func masterScoped(a Master, ministryID string) Decision {
	if a.Administers(ministryID) {
		return allow(ReasonMinistryMaster)
	}
	return deny(ReasonOutsideMinistry)
}

func (e *Engine) decideLeader(a Leader, action Action, target string) Decision {
	switch action {
	case ActionList:
		return allow(ReasonMinistryMember)
	case ActionView, ActionRegister, ActionFeedback:
		return leaderScoped(a, e.ctx.ResourceMinistryID)
	case ActionCreate:
		if leaderCannotCreate[e.kind] {
			return deny(ReasonRoleNotAllowed)
		}
		return leaderScoped(a, target)
	case ActionEdit, ActionManage, ActionViewStats:
		if e.ctx.IsResourceLeader {
			return allow(ReasonResourceLeader)
		}
		return deny(ReasonNotResourceLeader)
	case ActionDelete, ActionManageLeaders:
		return deny(ReasonRoleNotAllowed)
	}
	return deny(ReasonUnknownAction)
}

func leaderScoped(a Leader, ministryID string) Decision {
	if a.Member(ministryID) {
		return allow(ReasonMinistryMember)
	}
	return deny(ReasonOutsideMinistry)
}

// HasPermission dispatches an action identifier to its predicate. Unknown identifiers
// are denied.
func (e *Engine) HasPermission(action string) bool {
	a, ok := ParseAction(action)
	if !ok {
		return false
	}
	return e.Decide(a).Allowed
}

// Scope returns the ministries the actor may list resources from.
func (e *Engine) Scope() ListScope {
	switch a := e.ctx.Actor().(type) {
	case Admin:
		return ListScope{All: true}
	case Master:
		if a.MinistryID == "" {
			return ListScope{}
		}
		return ListScope{MinistryIDs: []string{a.MinistryID}}
	case Leader:
		return ListScope{MinistryIDs: a.MinistryIDs}
	default:
		return ListScope{}
	}
}

func (e *Engine) CanList() bool { return e.Decide(ActionList).Allowed }
func (e *Engine) CanView() bool { return e.Decide(ActionView).Allowed }
func (e *Engine) CanCreate(ministryID string) bool { return e.DecideCreate(ministryID).Allowed }
func (e *Engine) CanEdit() bool { return e.Decide(ActionEdit).Allowed }
func (e *Engine) CanDelete() bool { return e.Decide(ActionDelete).Allowed }
func (e *Engine) CanManage() bool { return e.Decide(ActionManage).Allowed }
func (e *Engine) CanManageLeaders() bool { return e.Decide(ActionManageLeaders).Allowed }
func (e *Engine) CanRegister() bool { return e.Decide(ActionRegister).Allowed }
func (e *Engine) CanFeedback() bool { return e.Decide(ActionFeedback).Allowed }
func (e *Engine) CanViewStats() bool { return e.Decide(ActionViewStats).Allowed }

func (e *Engine) CanManageParticipants() bool {
	return e.Decide(ActionManageParticipants).Allowed
}

func (e *Engine) CanManageRegistrations() bool {
	return e.Decide(ActionManageRegistrations).Allowed
}

func (e *Engine) CanManageFinances() bool {
	return e.Decide(ActionManageFinances).Allowed
}

func (e *Engine) CanManageMaterials() bool {
	return e.Decide(ActionManageMaterials).Allowed
}

func (e *Engine) CanChangeStatus() bool {
	return e.Decide(ActionChangeStatus).Allowed
}
