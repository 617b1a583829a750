package access

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// EditUserMessage is an admin edit request. Nil slices leave the matching
// attribute untouched; Apps, when present, drives the role/app sync engine
// and takes precedence over a literal Roles patch.
type EditUserMessage struct {
	Identifier     string          `json:"identifier"`
	Name           *string         `json:"name,omitempty"`
	Roles          []string        `json:"roles,omitempty"`
	Apps           []string        `json:"apps,omitempty"`
	Status         UserStatus      `json:"status,omitempty"`
	LinkedAccounts *LinkedAccounts `json:"linked_accounts,omitempty"`
}

func (e EditUserMessage) Type() string { return "user.edit" }

// Validate checks the message shape before any store work happens.
func (e EditUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Identifier, validation.Required),
		validation.Field(&e.Status, validation.In(
			UserStatusPending,
			UserStatusActive,
			UserStatusSuspended,
			UserStatusArchived,
		)),
	)
}

// EditUserHandler applies admin edits: role/app sync, status transitions
// (including auto-activation), and profile patches, persisted atomically.
type EditUserHandler struct {
	repo     RepositoryManager
	resolver *Resolver
	engine   *SyncEngine
	sink     ActivitySink
	logger   Logger
}

// NewEditUserHandler wires the handler.
func NewEditUserHandler(repo RepositoryManager, resolver *Resolver, engine *SyncEngine, sink ActivitySink) *EditUserHandler {
	if engine == nil {
		engine = NewSyncEngine(nil)
	}
	return &EditUserHandler{
		repo:     repo,
		resolver: resolver,
		engine:   engine,
		sink:     normalizeActivitySink(sink),
		logger:   defLogger{},
	}
}

// WithLogger overrides the logger used for sink failures.
func (h *EditUserHandler) WithLogger(logger Logger) *EditUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute resolves the target through the write-path identifier rules,
// recomputes roles and status, and persists the result. The sync runs to
// completion and persists before any re-derivation of displayed access;
// concurrent edits from two admin sessions are last-write-wins.
func (h *EditUserHandler) Execute(ctx context.Context, event EditUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user edit",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *EditUserHandler) execute(ctx context.Context, event EditUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid edit request")
	}

	user, err := h.resolver.ResolveForWrite(ctx, event.Identifier)
	if err != nil {
		return nil, err
	}

	oldStatus := user.Status
	rolesChanged := false

	switch {
	case event.Apps != nil:
		user.Roles = h.engine.SyncRoles(user.Roles, event.Apps)
		rolesChanged = true
	case event.Roles != nil:
		if err := h.engine.catalog.ValidateRoles(event.Roles); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid role set")
		}
		user.Roles = event.Roles
		rolesChanged = true
	}

	user.Status = h.engine.NextStatus(oldStatus, event.Status, user.Roles)

	if event.Name != nil {
		user.Name = *event.Name
	}
	if event.LinkedAccounts != nil {
		user.LinkedAccounts = *event.LinkedAccounts
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err = h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		user, err = h.repo.Users().UpdateTx(ctx, tx, user, repository.UpdateByID(user.ID.String()))
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "could not persist user edit")
		}
		return nil
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user edit transaction failed")
	}

	if rolesChanged {
		h.record(ctx, ActivityEvent{
			EventType:  ActivityEventRolesSynced,
			UserID:     user.ID.String(),
			Metadata:   map[string]any{"roles": user.Roles},
			OccurredAt: time.Now(),
		})
	}
	if user.Status != oldStatus {
		h.record(ctx, ActivityEvent{
			EventType:  ActivityEventUserStatusChanged,
			UserID:     user.ID.String(),
			FromStatus: oldStatus,
			ToStatus:   user.Status,
			OccurredAt: time.Now(),
		})
	}

	return user, nil
}

func (h *EditUserHandler) record(ctx context.Context, event ActivityEvent) {
	if err := h.sink.Record(ctx, event); err != nil {
		h.logger.Warn("user edit activity sink error: %v", err)
	}
}
