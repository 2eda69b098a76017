package model

// ConversationState is the per-subscriber "what free-text input are we
// expecting next" flag. One value per subscriber, last write wins.
type ConversationState string

const (
	StateIdle                   ConversationState = "idle"
	StateAwaitingCode           ConversationState = "awaiting_code"
	StateAwaitingCustomDuration ConversationState = "awaiting_custom_duration"
	StateAwaitingDeleteTarget   ConversationState = "awaiting_delete_target"
)
