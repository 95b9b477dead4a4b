package listings

import (
	"strings"

	"github.com/swapmarket/backend/pkg/enums"
	pkgerrors "github.com/swapmarket/backend/pkg/errors"
)

// Action is the publication intent the owner passes alongside a save.
type Action string

const (
	ActionPublish Action = "publish"
	ActionDraft   Action = "draft"
	ActionDelete  Action = "delete"
	ActionSold    Action = "sold"
)

// ParseCreateAction accepts the actions valid when creating a listing.
func ParseCreateAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionPublish:
		return ActionPublish, nil
	case ActionDraft:
		return ActionDraft, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid action").
			WithDetails(map[string]string{"action": "action should be publish/draft"})
	}
}

// ParseUpdateAction accepts the actions valid when updating a listing.
func ParseUpdateAction(raw string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(raw))) {
	case ActionPublish:
		return ActionPublish, nil
	case ActionDraft:
		return ActionDraft, nil
	case ActionDelete:
		return ActionDelete, nil
	case ActionSold:
		return ActionSold, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid action").
			WithDetails(map[string]string{"action": "action should be publish/draft/delete/sold"})
	}
}

// ResolveCreateState maps a create action onto the initial publish state.
func ResolveCreateState(action Action, moderationEnabled bool) enums.PublishState {
	if action == ActionDraft {
		return enums.PublishStateDraft
	}
	if moderationEnabled {
		return enums.PublishStateModeration
	}
	return enums.PublishStatePublished
}

// ResolveUpdateState maps an update action onto the next publish state.
// Draft, delete and sold apply unconditionally. Publish keeps an already
// published listing published when nothing changed, otherwise the listing
// re-enters moderation while the gate is enabled.
func ResolveUpdateState(action Action, oldState enums.PublishState, changed bool, moderationEnabled bool) enums.PublishState {
	switch action {
	case ActionDraft:
		return enums.PublishStateDraft
	case ActionDelete:
		return enums.PublishStateDeleted
	case ActionSold:
		return enums.PublishStateSold
	}

	if !moderationEnabled {
		return enums.PublishStatePublished
	}
	if oldState == enums.PublishStatePublished && !changed {
		return enums.PublishStatePublished
	}
	return enums.PublishStateModeration
}
