package telegram

import (
	"fmt"
	"strconv"
	"strings"
)

// Command is a slash command. The surface is deliberately small:
// everything else happens through buttons.
type Command string

const (
	CmdStart  Command = "start"
	CmdPlans  Command = "plans"
	CmdCancel Command = "cancel"
)

func (c Command) String() string {
	return string(c)
}

func (c Command) IsValid() bool {
	switch c {
	case CmdStart, CmdPlans, CmdCancel:
		return true
	}
	return false
}

// ConversationState marks an actor's progress through a multi-step
// flow. An actor has at most one active state at a time.
type ConversationState int

const (
	StateIdle ConversationState = iota

	// owner flows
	StateAwaitingBroadcast
	StateAwaitingPlanDays
	StateAwaitingPlanPrice
	StateAwaitingPlanUPI
	StateAwaitingBanID
	StateAwaitingUnbanID
	StateAwaitingDeletePlanID

	// user flows
	StateAwaitingScreenshot
	StateAwaitingToken
)

func (s ConversationState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingBroadcast:
		return "awaiting_broadcast"
	case StateAwaitingPlanDays:
		return "awaiting_plan_days"
	case StateAwaitingPlanPrice:
		return "awaiting_plan_price"
	case StateAwaitingPlanUPI:
		return "awaiting_plan_upi"
	case StateAwaitingBanID:
		return "awaiting_ban_id"
	case StateAwaitingUnbanID:
		return "awaiting_unban_id"
	case StateAwaitingDeletePlanID:
		return "awaiting_delete_plan_id"
	case StateAwaitingScreenshot:
		return "awaiting_screenshot"
	case StateAwaitingToken:
		return "awaiting_token"
	}
	return "unknown"
}

// OwnerState reports whether the state belongs to an owner-side flow.
func (s ConversationState) OwnerState() bool {
	switch s {
	case StateAwaitingBroadcast, StateAwaitingPlanDays, StateAwaitingPlanPrice,
		StateAwaitingPlanUPI, StateAwaitingBanID, StateAwaitingUnbanID,
		StateAwaitingDeletePlanID:
		return true
	}
	return false
}

// CallbackAction is the closed set of things an inline button can ask
// for. Raw button tags are parsed into it exactly once, at the update
// boundary, and matched exhaustively after that.
type CallbackAction int

const (
	ActionNone CallbackAction = iota

	ActionUserSend
	ActionUserPlans
	ActionUserMyBot
	ActionUserHelp
	ActionCancelPayment
	ActionSelectPlan

	ActionOwnerStats
	ActionOwnerActive
	ActionOwnerBanned
	ActionOwnerBroadcast
	ActionOwnerBan
	ActionOwnerUnban
	ActionOwnerPlans
	ActionCreatePlan
	ActionDeletePlan
	ActionOwnerPayments
	ActionUserInfo
	ActionBanUser
	ActionUnbanUser
	ActionApprovePayment
	ActionRejectPayment
)

// OwnerOnly reports whether the action may only be triggered by the
// owner.
func (a CallbackAction) OwnerOnly() bool {
	switch a {
	case ActionOwnerStats, ActionOwnerActive, ActionOwnerBanned,
		ActionOwnerBroadcast, ActionOwnerBan, ActionOwnerUnban,
		ActionOwnerPlans, ActionCreatePlan, ActionDeletePlan,
		ActionOwnerPayments, ActionUserInfo, ActionBanUser,
		ActionUnbanUser, ActionApprovePayment, ActionRejectPayment:
		return true
	}
	return false
}

// Callback is a parsed button press: an action plus the entity id
// embedded in the tag, when the tag carries one.
type Callback struct {
	Action CallbackAction
	ID     int64
}

var fixedTags = map[string]CallbackAction{
	"user_send":       ActionUserSend,
	"user_plans":      ActionUserPlans,
	"user_mybot":      ActionUserMyBot,
	"user_help":       ActionUserHelp,
	"cancel_payment":  ActionCancelPayment,
	"owner_stats":     ActionOwnerStats,
	"owner_active":    ActionOwnerActive,
	"owner_banned":    ActionOwnerBanned,
	"owner_broadcast": ActionOwnerBroadcast,
	"owner_ban":       ActionOwnerBan,
	"owner_unban":     ActionOwnerUnban,
	"owner_plans":     ActionOwnerPlans,
	"create_plan":     ActionCreatePlan,
	"delete_plan":     ActionDeletePlan,
	"owner_payments":  ActionOwnerPayments,
}

var idTags = map[string]CallbackAction{
	"plan":     ActionSelectPlan,
	"userinfo": ActionUserInfo,
	"ban":      ActionBanUser,
	"unban":    ActionUnbanUser,
	"approve":  ActionApprovePayment,
	"reject":   ActionRejectPayment,
}

// ParseCallback turns a raw tag like "plan_3" or "owner_stats" into a
// Callback. Unrecognized tags parse to ActionNone and are ignored by
// the dispatcher.
func ParseCallback(data string) Callback {
	if action, ok := fixedTags[data]; ok {
		return Callback{Action: action}
	}

	idx := strings.IndexByte(data, '_')
	if idx <= 0 {
		return Callback{}
	}
	action, ok := idTags[data[:idx]]
	if !ok {
		return Callback{}
	}
	id, err := strconv.ParseInt(data[idx+1:], 10, 64)
	if err != nil {
		return Callback{}
	}
	return Callback{Action: action, ID: id}
}

// Data renders the wire tag for a button. Inverse of ParseCallback.
func (c Callback) Data() string {
	for tag, action := range fixedTags {
		if action == c.Action {
			return tag
		}
	}
	for prefix, action := range idTags {
		if action == c.Action {
			return fmt.Sprintf("%s_%d", prefix, c.ID)
		}
	}
	return ""
}

// ContentKind is the closed set of message payloads the bot relays.
type ContentKind int

const (
	ContentNone ContentKind = iota
	ContentText
	ContentPhoto
	ContentVideo
	ContentDocument
	ContentVoice
	ContentAudio
	ContentVideoNote
)

func (k ContentKind) String() string {
	switch k {
	case ContentText:
		return "text"
	case ContentPhoto:
		return "photo"
	case ContentVideo:
		return "video"
	case ContentDocument:
		return "document"
	case ContentVoice:
		return "voice"
	case ContentAudio:
		return "audio"
	case ContentVideoNote:
		return "video_note"
	}
	return "none"
}

// Content is one relayable message payload, extracted from an update
// once and consumed by the shared send primitive.
type Content struct {
	Kind    ContentKind
	Text    string
	FileID  string
	Caption string
}
