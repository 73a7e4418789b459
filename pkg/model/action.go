package model

import (
	"fmt"
	"strings"
)

// Action is one of the closed set of lifecycle actions a request can name.
type Action uint8

const (
	ActionUnknown Action = iota
	ActionBrowse
	ActionNew
	ActionCreate
	ActionShow
	ActionEdit
	ActionUpdate
	ActionDelete
	ActionDestroy
	ActionSearch
	ActionMtmEdit
	ActionMtmUpdate
)

var actionNames = [...]string{
	ActionUnknown:   "",
	ActionBrowse:    "browse",
	ActionNew:       "new",
	ActionCreate:    "create",
	ActionShow:      "show",
	ActionEdit:      "edit",
	ActionUpdate:    "update",
	ActionDelete:    "delete",
	ActionDestroy:   "destroy",
	ActionSearch:    "search",
	ActionMtmEdit:   "mtm_edit",
	ActionMtmUpdate: "mtm_update",
}

// CRUDActions is the default supported set: every idempotent CRUD action.
var CRUDActions = []Action{ActionBrowse, ActionNew, ActionShow, ActionEdit, ActionDelete, ActionSearch}

// TabActions lists the actions shown in the tab strip, in display order.
var TabActions = []Action{ActionBrowse, ActionNew, ActionShow, ActionEdit, ActionDelete, ActionSearch, ActionMtmEdit}

// ParseAction maps an action keyword to its Action.
func ParseAction(s string) (Action, bool) {
	for a, name := range actionNames {
		if a != int(ActionUnknown) && name == s {
			return Action(a), true
		}
	}
	return ActionUnknown, false
}

// String returns the action keyword used in URLs.
func (a Action) String() string {
	if int(a) < len(actionNames) {
		return actionNames[a]
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// Normalize returns the idempotent form used for the supported-action check.
func (a Action) Normalize() Action {
	switch a {
	case ActionCreate:
		return ActionNew
	case ActionUpdate:
		return ActionEdit
	case ActionDestroy:
		return ActionDelete
	case ActionMtmUpdate:
		return ActionMtmEdit
	default:
		return a
	}
}

// Idempotent reports whether the action is its own normalized form.
func (a Action) Idempotent() bool {
	return a == a.Normalize()
}

// MarshalText implements encoding.TextMarshaler.
func (a Action) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Action) UnmarshalText(text []byte) error {
	parsed, ok := ParseAction(strings.TrimSpace(string(text)))
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAction, text)
	}
	*a = parsed
	return nil
}

// HookPoint names a slot where a model hook runs.
type HookPoint uint8

const (
	BeforeCreate HookPoint = iota + 1
	AfterCreate
	BeforeUpdate
	AfterUpdate
	BeforeDestroy
	AfterDestroy
)

func (p HookPoint) String() string {
	switch p {
	case BeforeCreate:
		return "before_create"
	case AfterCreate:
		return "after_create"
	case BeforeUpdate:
		return "before_update"
	case AfterUpdate:
		return "after_update"
	case BeforeDestroy:
		return "before_destroy"
	case AfterDestroy:
		return "after_destroy"
	default:
		return "hook(" + fmt.Sprint(uint8(p)) + ")"
	}
}
