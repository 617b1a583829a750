package access

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/hashid/pkg/hashid"
)

// AllowlistSyncer bootstraps user records from the identity provider's
// pre-approved login methods. Entries the store already knows are left
// untouched; new ones are created with zero roles (pending) and, for phone
// and wallet entries, a synthetic placeholder email and generated display
// name.
type AllowlistSyncer struct {
	users    Users
	provider IdentityProvider
	sink     ActivitySink
	logger   Logger
}

// SyncerOption customizes syncer construction.
type SyncerOption func(*AllowlistSyncer)

// WithSyncerActivitySink sets the sink notified after a sync run.
func WithSyncerActivitySink(sink ActivitySink) SyncerOption {
	return func(s *AllowlistSyncer) {
		s.sink = normalizeActivitySink(sink)
	}
}

// WithSyncerLogger overrides the default logger.
func WithSyncerLogger(l Logger) SyncerOption {
	return func(s *AllowlistSyncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewAllowlistSyncer wires the bootstrap sync.
func NewAllowlistSyncer(users Users, provider IdentityProvider, opts ...SyncerOption) *AllowlistSyncer {
	s := &AllowlistSyncer{
		users:    users,
		provider: provider,
		sink:     noopActivitySink{},
		logger:   defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Sync pulls the provider allowlist and upserts one user per entry,
// returning the number of records created. Entries that fail to map are
// logged and skipped so a single bad value cannot abort the bootstrap.
func (s *AllowlistSyncer) Sync(ctx context.Context) (int, error) {
	entries, err := s.provider.ListAllowlist(ctx)
	if err != nil {
		return 0, ErrProviderUnavailable.WithMetadata(map[string]any{
			"cause": err.Error(),
		})
	}

	created := 0
	for _, entry := range entries {
		record, err := userFromAllowlistEntry(entry)
		if err != nil {
			s.logger.Warn("skipping allowlist entry %s/%s: %v", entry.Type, entry.Value, err)
			continue
		}

		_, err = s.users.FindByEmail(ctx, record.Email)
		if err == nil {
			continue
		}
		if !repository.IsRecordNotFound(err) {
			return created, err
		}

		if _, err := s.users.Create(ctx, record); err != nil {
			return created, err
		}
		created++
	}

	_ = s.sink.Record(ctx, ActivityEvent{
		EventType:  ActivityEventAllowlistSynced,
		Metadata:   map[string]any{"entries": len(entries), "created": created},
		OccurredAt: time.Now(),
	})

	return created, nil
}

func userFromAllowlistEntry(entry AllowlistEntry) (*User, error) {
	value := strings.TrimSpace(entry.Value)
	if value == "" {
		return nil, fmt.Errorf("empty allowlist value")
	}

	user := &User{}

	switch entry.Type {
	case AllowlistEmail:
		user.Email = value
		user.Name = EmailDisplayName(value)
	case AllowlistPhone:
		digits := NormalizePhone(value)
		if digits == "" {
			return nil, fmt.Errorf("unparseable phone %q", entry.Value)
		}
		phone := "+" + digits
		user.Email = PhonePlaceholderEmail(digits)
		user.Name = PhoneDisplayName(digits)
		user.LinkedAccounts.Phone = &phone
	case AllowlistWallet:
		wallet := strings.ToLower(value)
		user.Email = WalletPlaceholderEmail(value)
		user.Name = WalletDisplayName(value)
		user.LinkedAccounts.Wallet = &wallet
	default:
		return nil, fmt.Errorf("unknown allowlist entry type %q", entry.Type)
	}

	// Deterministic IDs keep repeated bootstrap runs from ever racing two
	// inserts for the same entry.
	if id, err := hashid.NewUUID(user.Email); err == nil {
		user.ID = id
	}

	return user, nil
}
