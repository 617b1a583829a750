package access

import (
	"context"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/uptrace/bun"
)

// CreateUserMessage is an admin "create user" request. New accounts start
// with zero roles and therefore a pending status unless roles are given.
type CreateUserMessage struct {
	Email     string   `json:"email"`
	Name      string   `json:"name"`
	Roles     []string `json:"roles"`
	UseHashid bool     `json:"-"`
}

func (e CreateUserMessage) Type() string { return "user.create" }

// Validate checks the message shape before any store work happens.
func (e CreateUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, is.Email),
	)
}

// CreateUserHandler persists admin-created accounts.
type CreateUserHandler struct {
	repo    RepositoryManager
	catalog *Catalog
	sink    ActivitySink
	logger  Logger
}

// NewCreateUserHandler wires the handler.
func NewCreateUserHandler(repo RepositoryManager, catalog *Catalog, sink ActivitySink) *CreateUserHandler {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	return &CreateUserHandler{
		repo:    repo,
		catalog: catalog,
		sink:    normalizeActivitySink(sink),
		logger:  defLogger{},
	}
}

// WithLogger overrides the logger used for sink failures.
func (h *CreateUserHandler) WithLogger(logger Logger) *CreateUserHandler {
	if logger != nil {
		h.logger = logger
	}
	return h
}

// Execute creates the user inside a transaction and returns the record.
func (h *CreateUserHandler) Execute(ctx context.Context, event CreateUserMessage) (*User, error) {
	select {
	case <-ctx.Done():
		return nil, goerrors.Wrap(
			ctx.Err(),
			goerrors.CategoryOperation,
			"context cancelled during user creation",
		)
	default:
		return h.execute(ctx, event)
	}
}

func (h *CreateUserHandler) execute(ctx context.Context, event CreateUserMessage) (*User, error) {
	if err := event.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid create user request")
	}

	if err := h.catalog.ValidateRoles(event.Roles); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryValidation, "invalid role set")
	}

	user := &User{
		Email: event.Email,
		Name:  event.Name,
		Roles: event.Roles,
	}
	if event.UseHashid {
		if id, err := hashid.NewUUID(event.Email); err == nil {
			user.ID = id
		}
	}

	ctx, cancel := context.WithTimeout(ctx, time.Second*10)
	defer cancel()

	err := h.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var err error
		if user, err = h.repo.Users().CreateTx(ctx, tx, user); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryConflict, "could not create user")
		}
		return nil
	})
	if err != nil {
		var richErr *goerrors.Error
		if goerrors.As(err, &richErr) {
			return nil, richErr
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "user creation transaction failed")
	}

	if err := h.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventUserCreated,
		UserID:     user.ID.String(),
		ToStatus:   user.Status,
		OccurredAt: time.Now(),
	}); err != nil {
		h.logger.Warn("user create activity sink error: %v", err)
	}

	return user, nil
}
