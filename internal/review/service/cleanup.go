package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/tesseramedia/tessera/internal/review/repository"
	"github.com/tesseramedia/tessera/pkg/events"
	"github.com/tesseramedia/tessera/pkg/interfaces"
)

// parseEventUUID extracts a uuid value from event data, accepting both
// uuid.UUID and string forms.
func parseEventUUID(event interfaces.Event, key string) (uuid.UUID, bool) {
	base, ok := event.(*events.BaseEvent)
	if !ok {
		return uuid.Nil, false
	}
	raw, ok := base.Data[key]
	if !ok {
		return uuid.Nil, false
	}
	switch v := raw.(type) {
	case uuid.UUID:
		return v, true
	case string:
		parsed, err := uuid.Parse(v)
		if err != nil {
			return uuid.Nil, false
		}
		return parsed, true
	}
	return uuid.Nil, false
}

// TitleCleanupHandler removes a title's reviews and comments when the
// catalog publishes a title deletion.
type TitleCleanupHandler struct {
	repo   repository.Repository
	logger interfaces.Logger
}

// NewTitleCleanupHandler creates the cleanup handler.
func NewTitleCleanupHandler(repo repository.Repository, logger interfaces.Logger) *TitleCleanupHandler {
	return &TitleCleanupHandler{repo: repo, logger: logger}
}

// EventType returns the handled event type.
func (h *TitleCleanupHandler) EventType() string {
	return events.TitleDeleted
}

// Handle deletes all reviews of the deleted title.
func (h *TitleCleanupHandler) Handle(ctx context.Context, event interfaces.Event) error {
	titleID, ok := parseEventUUID(event, "title_id")
	if !ok {
		return nil
	}

	if err := h.repo.DeleteTitleReviews(ctx, titleID); err != nil {
		h.logger.Error("Failed to clean up reviews for deleted title",
			interfaces.Error(err),
			interfaces.String("title_id", titleID.String()))
		return err
	}

	h.logger.Info("Removed reviews for deleted title",
		interfaces.String("title_id", titleID.String()))
	return nil
}

// UserCleanupHandler removes a user's reviews and comments when the
// account is deleted.
type UserCleanupHandler struct {
	repo   repository.Repository
	logger interfaces.Logger
}

// NewUserCleanupHandler creates the cleanup handler.
func NewUserCleanupHandler(repo repository.Repository, logger interfaces.Logger) *UserCleanupHandler {
	return &UserCleanupHandler{repo: repo, logger: logger}
}

// EventType returns the handled event type.
func (h *UserCleanupHandler) EventType() string {
	return events.UserDeleted
}

// Handle deletes everything the removed user authored.
func (h *UserCleanupHandler) Handle(ctx context.Context, event interfaces.Event) error {
	userID, ok := parseEventUUID(event, "user_id")
	if !ok {
		return nil
	}

	if err := h.repo.DeleteAuthorData(ctx, userID); err != nil {
		h.logger.Error("Failed to clean up content for deleted user",
			interfaces.Error(err),
			interfaces.String("user_id", userID.String()))
		return err
	}

	h.logger.Info("Removed content for deleted user",
		interfaces.String("user_id", userID.String()))
	return nil
}
