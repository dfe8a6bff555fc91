package activity

import "time"

// Lifecycle verbs emitted by the settings store.
const (
	VerbSettingUpdated = "settings.updated"
	VerbSettingDeleted = "settings.deleted"
	VerbSettingsReset  = "settings.reset"
)

// EventInput describes the common fields for settings lifecycle events.
type EventInput struct {
	ActorID    string
	UserID     string
	TenantID   string
	Store      string
	Key        string
	Channel    string
	Recipients []string
	Metadata   map[string]any
	OldValue   any
	NewValue   any
	SnapshotID string
	Persisted  bool
	OccurredAt time.Time
}

// BuildSettingUpdatedEvent constructs a normalized event for a key update.
func BuildSettingUpdatedEvent(input EventInput) Event {
	return buildSettingsEvent(VerbSettingUpdated, input)
}

// BuildSettingDeletedEvent constructs a normalized event for a key removal.
func BuildSettingDeletedEvent(input EventInput) Event {
	return buildSettingsEvent(VerbSettingDeleted, input)
}

// BuildSettingsResetEvent constructs a normalized event for a full reset to
// defaults.
func BuildSettingsResetEvent(input EventInput) Event {
	return buildSettingsEvent(VerbSettingsReset, input)
}

func buildSettingsEvent(verb string, input EventInput) Event {
	metadata := cloneMap(input.Metadata)
	if input.OldValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["old_value"] = input.OldValue
	}
	if input.NewValue != nil {
		metadata = ensureMetadata(metadata)
		metadata["new_value"] = input.NewValue
	}
	if input.SnapshotID != "" {
		metadata = ensureMetadata(metadata)
		metadata["snapshot_id"] = input.SnapshotID
	}
	metadata = ensureMetadata(metadata)
	metadata["persisted"] = input.Persisted

	return NormalizeEvent(Event{
		Verb:       verb,
		ActorID:    input.ActorID,
		UserID:     input.UserID,
		TenantID:   input.TenantID,
		Store:      input.Store,
		Key:        input.Key,
		Channel:    input.Channel,
		Recipients: input.Recipients,
		Metadata:   metadata,
		OccurredAt: input.OccurredAt,
	})
}

func ensureMetadata(metadata map[string]any) map[string]any {
	if metadata == nil {
		return map[string]any{}
	}
	return metadata
}
