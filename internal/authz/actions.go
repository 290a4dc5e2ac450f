package authz

import "strings"

// Kind names the resource family an engine decides for.
type Kind string

const (
	KindEvent      Kind = "event"
	KindSmallGroup Kind = "small_group"
	KindMeeting    Kind = "meeting"
	KindMember     Kind = "member"
	KindMinistry   Kind = "ministry"
	KindUser       Kind = "user"
	KindFinance    Kind = "finance"
)

// Action identifies one entry of the permission catalogue.
type Action string

const (
	ActionList          Action = "list"
	ActionView          Action = "view"
	ActionCreate        Action = "create"
	ActionEdit          Action = "edit"
	ActionDelete        Action = "delete"
	ActionManage        Action = "manage"
	ActionManageLeaders Action = "manage_leaders"
	ActionRegister      Action = "register"
	ActionFeedback      Action = "feedback"
	ActionViewStats     Action = "view_stats"

	// Aliases of ActionManage.
	ActionManageParticipants  Action = "manage_participants"
	ActionManageRegistrations Action = "manage_registrations"
	ActionManageFinances      Action = "manage_finances"
	ActionManageMaterials     Action = "manage_materials"
	ActionChangeStatus        Action = "change_status"
)

// CatalogueActions are the ten distinct decisions of the permission table.
var CatalogueActions = []Action{
	ActionList,
	ActionView,
	ActionCreate,
	ActionEdit,
	ActionDelete,
	ActionManage,
	ActionManageLeaders,
	ActionRegister,
	ActionFeedback,
	ActionViewStats,
}

var manageAliases = map[Action]bool{
	ActionManageParticipants:  true,
	ActionManageRegistrations: true,
	ActionManageFinances:      true,
	ActionManageMaterials:     true,
	ActionChangeStatus:        true,
}

// ParseAction resolves an action identifier. Unknown identifiers return false.
func ParseAction(s string) (Action, bool) {
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if manageAliases[a] {
		return a, true
	}
	for _, known := range CatalogueActions {
		if a == known {
			return a, true
		}
	}
	return a, false
}

// canonical folds manage aliases onto ActionManage.
func canonical(a Action) Action {
	if manageAliases[a] {
		return ActionManage
	}
	return a
}

// Key composes a permission key like "event:edit".
func Key(kind Kind, action Action) string { return string(kind) + ":" + string(action) }

// leaderCannotCreate lists kinds a LEADER may never create, even inside their ministries.
var leaderCannotCreate = map[Kind]bool{
	KindMinistry: true,
	KindUser:     true,
	KindFinance:  true,
}

// adminOnly lists actions reserved to ADMIN for a kind.
var adminOnly = map[Kind]map[Action]bool{
	KindMinistry: {ActionCreate: true, ActionDelete: true},
}
