package settings

import (
	"context"

	"github.com/goliatone/go-settings/pkg/activity"
)

// WithActivityEmitter attaches an activity emitter so mutations publish
// settings.updated / settings.deleted / settings.reset events. Emission
// failures are logged, never surfaced to callers.
func WithActivityEmitter(emitter *activity.Emitter) Option {
	return func(cfg *config) {
		cfg.emitter = emitter
	}
}

func (s *Store) emitUpdated(ctx context.Context, key string, old, value any, persisted bool) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	s.emit(ctx, activity.BuildSettingUpdatedEvent(activity.EventInput{
		Store:     s.optionName,
		Key:       key,
		OldValue:  old,
		NewValue:  value,
		Persisted: persisted,
	}))
}

func (s *Store) emitDeleted(ctx context.Context, key string, old any, persisted bool) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	s.emit(ctx, activity.BuildSettingDeletedEvent(activity.EventInput{
		Store:     s.optionName,
		Key:       key,
		OldValue:  old,
		Persisted: persisted,
	}))
}

func (s *Store) emitReset(ctx context.Context, persisted bool) {
	if !s.cfg.emitter.Enabled() {
		return
	}
	s.emit(ctx, activity.BuildSettingsResetEvent(activity.EventInput{
		Store:     s.optionName,
		Persisted: persisted,
	}))
}

func (s *Store) emit(ctx context.Context, event activity.Event) {
	if err := s.cfg.emitter.Emit(ctx, event); err != nil {
		s.logger().LogOperation(LogEvent{
			Op:  "activity",
			Key: event.Key,
			Err: err,
		})
	}
}
