package access

import (
	"context"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
)

// LinkState is the lifecycle state of one credential slot.
type LinkState string

const (
	LinkStateUnlinked LinkState = "unlinked"
	LinkStatePending  LinkState = "pending_verification"
	LinkStateLinked   LinkState = "linked"
)

// LinkRequest tracks an in-flight verification. It lives only in memory:
// nothing is persisted until the provider confirms the proof.
type LinkRequest struct {
	Credential CredentialType
	Value      string
	Token      string
}

// LinkTransition is passed into hooks for additional processing.
type LinkTransition struct {
	Actor      ActorRef
	User       *User
	Credential CredentialType
	From       LinkState
	To         LinkState
	Value      string
}

// LinkHook is executed around a link state change.
type LinkHook func(ctx context.Context, lt LinkTransition) error

// CredentialLinker drives the account-linking lifecycle for secondary
// credentials (phone, wallet) against the external identity provider.
type CredentialLinker interface {
	State(user *User, credential CredentialType) LinkState
	Begin(ctx context.Context, actor ActorRef, user *User, credential CredentialType, value string) (*LinkRequest, error)
	Confirm(ctx context.Context, actor ActorRef, user *User, req *LinkRequest, proof string) (*User, error)
	Cancel(ctx context.Context, actor ActorRef, user *User, req *LinkRequest) error
	Unlink(ctx context.Context, actor ActorRef, user *User, credential CredentialType) (*User, error)
}

// LinkerOption customizes linker construction.
type LinkerOption func(*credentialLinker)

// WithLinkerClock injects a custom clock (useful for tests).
func WithLinkerClock(clock func() time.Time) LinkerOption {
	return func(l *credentialLinker) {
		if clock != nil {
			l.now = clock
		}
	}
}

// WithLinkerActivitySink sets the sink used to publish link events.
func WithLinkerActivitySink(sink ActivitySink) LinkerOption {
	return func(l *credentialLinker) {
		l.activitySink = normalizeActivitySink(sink)
	}
}

// WithLinkerLogger overrides the logger used for sink failures.
func WithLinkerLogger(logger Logger) LinkerOption {
	return func(l *credentialLinker) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithBeforeLinkHook adds a hook executed before a transition persists.
func WithBeforeLinkHook(h LinkHook) LinkerOption {
	return func(l *credentialLinker) {
		if h != nil {
			l.beforeHooks = append(l.beforeHooks, h)
		}
	}
}

// WithAfterLinkHook adds a hook executed after a transition persists.
func WithAfterLinkHook(h LinkHook) LinkerOption {
	return func(l *credentialLinker) {
		if h != nil {
			l.afterHooks = append(l.afterHooks, h)
		}
	}
}

// NewCredentialLinker returns the default implementation backed by the
// provided repository and identity provider.
func NewCredentialLinker(users Users, provider IdentityProvider, opts ...LinkerOption) CredentialLinker {
	l := &credentialLinker{
		users:    users,
		provider: provider,
		transitions: map[LinkState]map[LinkState]struct{}{
			LinkStateUnlinked: {
				LinkStatePending: {},
			},
			LinkStatePending: {
				LinkStateLinked:   {},
				LinkStateUnlinked: {},
			},
			LinkStateLinked: {
				LinkStateUnlinked: {},
			},
		},
		now:          time.Now,
		activitySink: noopActivitySink{},
		logger:       defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}

	return l
}

type credentialLinker struct {
	users        Users
	provider     IdentityProvider
	transitions  map[LinkState]map[LinkState]struct{}
	now          func() time.Time
	activitySink ActivitySink
	logger       Logger
	beforeHooks  []LinkHook
	afterHooks   []LinkHook
}

// State reports the stored state of one credential slot. Pending requests
// are not persisted, so a slot is either unlinked or linked here.
func (l *credentialLinker) State(user *User, credential CredentialType) LinkState {
	if user == nil {
		return LinkStateUnlinked
	}
	if v := user.LinkedAccounts.Get(credential); v != nil && *v != "" {
		return LinkStateLinked
	}
	return LinkStateUnlinked
}

// Begin starts verification of a candidate value. Re-issuing the value a
// slot already holds is a no-op at the provider, so it is allowed; a slot
// holding a different value must be unlinked first.
func (l *credentialLinker) Begin(ctx context.Context, actor ActorRef, user *User, credential CredentialType, value string) (*LinkRequest, error) {
	if user == nil || !credential.IsValid() {
		return nil, ErrInvalidLinkTransition.WithMetadata(map[string]any{
			"credential": string(credential),
		})
	}

	normalized := normalizeCredentialValue(credential, value)
	if normalized == "" {
		return nil, ErrInvalidLinkTransition.WithMetadata(map[string]any{
			"credential": string(credential),
			"reason":     "empty value",
		})
	}

	if current := user.LinkedAccounts.Get(credential); current != nil && *current != "" && *current != normalized {
		return nil, ErrInvalidLinkTransition.WithMetadata(map[string]any{
			"credential": string(credential),
			"reason":     "slot already linked to another value",
		})
	}

	token, err := l.provider.BeginLink(ctx, l.providerUserID(user), credential, normalized)
	if err != nil {
		return nil, ErrProviderUnavailable.WithMetadata(map[string]any{
			"credential": string(credential),
			"cause":      err.Error(),
		})
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventCredentialPending,
		Actor:     actor,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"credential": string(credential)},
	})

	return &LinkRequest{
		Credential: credential,
		Value:      normalized,
		Token:      token,
	}, nil
}

// Confirm submits the verification proof. On success the value is written
// and persisted immediately; a store failure after provider acceptance
// returns the updated record together with ErrLinkNotSaved so the caller
// can retry the save. On a rejected proof nothing changes.
func (l *credentialLinker) Confirm(ctx context.Context, actor ActorRef, user *User, req *LinkRequest, proof string) (*User, error) {
	if user == nil || req == nil {
		return nil, ErrInvalidLinkTransition
	}

	from := l.State(user, req.Credential)
	if !l.canTransition(LinkStatePending, LinkStateLinked) {
		return nil, ErrInvalidLinkTransition
	}

	ok, err := l.provider.ConfirmLink(ctx, req.Token, proof)
	if err != nil {
		return nil, ErrProviderUnavailable.WithMetadata(map[string]any{
			"credential": string(req.Credential),
			"cause":      err.Error(),
		})
	}
	if !ok {
		return nil, ErrVerificationFailed.WithMetadata(map[string]any{
			"credential": string(req.Credential),
		})
	}

	lt := LinkTransition{
		Actor:      actor,
		User:       user,
		Credential: req.Credential,
		From:       from,
		To:         LinkStateLinked,
		Value:      req.Value,
	}
	if err := l.runHooks(ctx, l.beforeHooks, lt); err != nil {
		return nil, err
	}

	value := req.Value
	user.LinkedAccounts.Set(req.Credential, &value)

	// The provider already holds the link; persist right away so a later
	// failure cannot silently lose it from the provider's perspective.
	if err := l.persist(ctx, user); err != nil {
		return user, ErrLinkNotSaved.WithMetadata(map[string]any{
			"credential": string(req.Credential),
			"cause":      err.Error(),
		})
	}

	if err := l.runHooks(ctx, l.afterHooks, lt); err != nil {
		return user, err
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventCredentialLinked,
		Actor:     actor,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"credential": string(req.Credential)},
	})

	return user, nil
}

// Cancel abandons a pending verification. No state was persisted, so there
// is nothing to roll back.
func (l *credentialLinker) Cancel(ctx context.Context, actor ActorRef, user *User, req *LinkRequest) error {
	if user == nil || req == nil {
		return ErrInvalidLinkTransition
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventCredentialRemoved,
		Actor:     actor,
		UserID:    user.ID.String(),
		Metadata: map[string]any{
			"credential": string(req.Credential),
			"cancelled":  true,
		},
	})

	return nil
}

// Unlink detaches a linked credential: provider first, then local clear.
func (l *credentialLinker) Unlink(ctx context.Context, actor ActorRef, user *User, credential CredentialType) (*User, error) {
	if user == nil || !credential.IsValid() {
		return nil, ErrInvalidLinkTransition
	}

	current := user.LinkedAccounts.Get(credential)
	if l.State(user, credential) != LinkStateLinked || !l.canTransition(LinkStateLinked, LinkStateUnlinked) {
		return nil, ErrInvalidLinkTransition.WithMetadata(map[string]any{
			"credential": string(credential),
			"reason":     "nothing linked",
		})
	}

	ok, err := l.provider.Unlink(ctx, l.providerUserID(user), credential, *current)
	if err != nil {
		return nil, ErrProviderUnavailable.WithMetadata(map[string]any{
			"credential": string(credential),
			"cause":      err.Error(),
		})
	}
	if !ok {
		return nil, ErrVerificationFailed.WithMetadata(map[string]any{
			"credential": string(credential),
			"reason":     "provider refused unlink",
		})
	}

	lt := LinkTransition{
		Actor:      actor,
		User:       user,
		Credential: credential,
		From:       LinkStateLinked,
		To:         LinkStateUnlinked,
	}
	if err := l.runHooks(ctx, l.beforeHooks, lt); err != nil {
		return nil, err
	}

	user.LinkedAccounts.Set(credential, nil)

	if err := l.persist(ctx, user); err != nil {
		return user, err
	}

	if err := l.runHooks(ctx, l.afterHooks, lt); err != nil {
		return user, err
	}

	l.recordActivity(ctx, ActivityEvent{
		EventType: ActivityEventCredentialRemoved,
		Actor:     actor,
		UserID:    user.ID.String(),
		Metadata:  map[string]any{"credential": string(credential)},
	})

	return user, nil
}

func (l *credentialLinker) persist(ctx context.Context, user *User) error {
	_, err := l.users.Update(ctx, user, repository.UpdateByID(user.ID.String()))
	return err
}

func (l *credentialLinker) providerUserID(user *User) string {
	if user.ProviderID != "" {
		return user.ProviderID
	}
	return user.ID.String()
}

func (l *credentialLinker) canTransition(from, to LinkState) bool {
	if allowed, ok := l.transitions[from]; ok {
		_, exists := allowed[to]
		return exists
	}
	return false
}

func (l *credentialLinker) runHooks(ctx context.Context, hooks []LinkHook, lt LinkTransition) error {
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, lt); err != nil {
			return err
		}
	}
	return nil
}

func (l *credentialLinker) recordActivity(ctx context.Context, event ActivityEvent) {
	if event.Actor == (ActorRef{}) {
		event.Actor = ActorRef{Type: "system"}
	}

	if event.OccurredAt.IsZero() {
		event.OccurredAt = l.now()
	}

	sink := normalizeActivitySink(l.activitySink)
	if err := sink.Record(ctx, event); err != nil {
		l.logger.Warn("credential linker activity sink error: %v", err)
	}
}

func normalizeCredentialValue(credential CredentialType, value string) string {
	switch credential {
	case CredentialPhone:
		digits := NormalizePhone(value)
		if digits == "" {
			return ""
		}
		return "+" + digits
	case CredentialWallet:
		return strings.ToLower(strings.TrimSpace(value))
	}
	return strings.TrimSpace(value)
}
