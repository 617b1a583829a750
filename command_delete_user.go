package access

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// DeleteUserMessage removes a user record by identifier slug.
type DeleteUserMessage struct {
	Identifier string `json:"identifier"`
}

func (e DeleteUserMessage) Type() string { return "user.delete" }

// DeleteUserHandler deletes accounts, refusing every alias of the
// distinguished super admin before touching the store.
type DeleteUserHandler struct {
	repo     RepositoryManager
	resolver *Resolver
	sink     ActivitySink
	logger   Logger
}

// NewDeleteUserHandler wires the handler.
func NewDeleteUserHandler(repo RepositoryManager, resolver *Resolver, sink ActivitySink) *DeleteUserHandler {
	return &DeleteUserHandler{
		repo:     repo,
		resolver: resolver,
		sink:     normalizeActivitySink(sink),
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used for sink failures.
func (h *DeleteUserHandler) WithLogger(logger Logger) *DeleteUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute deletes the resolved record. Super admin aliases are rejected up
// front with ErrSuperAdminProtected and cause no store mutation; the same
// guard re-runs on the resolved record so indirect slugs cannot bypass it.
func (h *DeleteUserHandler) Execute(ctx context.Context, event DeleteUserMessage) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user deletion",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *DeleteUserHandler) execute(ctx context.Context, event DeleteUserMessage) error {
	if IsSuperAdminWriteAlias(event.Identifier) {
		return ErrSuperAdminProtected.WithMetadata(map[string]any{
			"identifier": event.Identifier,
		})
	}

	user, err := h.resolver.ResolveForWrite(ctx, event.Identifier)
	if err != nil {
		return err
	}

	if h.resolver.IsSuperAdmin(user) {
		return ErrSuperAdminProtected.WithMetadata(map[string]any{
			"identifier": event.Identifier,
		})
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return h.repo.Users().DeleteByIDTx(ctx, tx, user.ID)
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return richErr
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "user deletion transaction failed")
	}

	if err := h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserDeleted,
		UserID:     user.ID.String(),
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("user delete activity sink error: %v", err)
	}

	return nil
}
