package access

import (
	"context"
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Users is the record-store surface the engine depends on. Filters are
// restricted to equality on id/provider_id/email, prefix LIKE on email,
// and substring LIKE on name.
type Users interface {
	repository.Repository[*User]

	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	FindByEmailPrefix(ctx context.Context, local string) (*User, error)
	FindByEmailPrefixTx(ctx context.Context, tx bun.IDB, local string) (*User, error)
	FindByNameContains(ctx context.Context, fragment string) (*User, error)
	FindByNameContainsTx(ctx context.Context, tx bun.IDB, fragment string) (*User, error)
	FindByProviderID(ctx context.Context, providerID string) (*User, error)
	FindByProviderIDTx(ctx context.Context, tx bun.IDB, providerID string) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)
	GetOrCreate(ctx context.Context, record *User) (*User, error)
	GetOrCreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)

	UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error)
	UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error)

	DeleteByID(ctx context.Context, id uuid.UUID) error
	DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

// NewUsersRepository builds the bun-backed Users repository.
func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) FindByEmail(ctx context.Context, email string) (*User, error) {
	return a.FindByEmailTx(ctx, a.db, email)
}

func (a *users) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", strings.TrimSpace(email)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) FindByEmailPrefix(ctx context.Context, local string) (*User, error) {
	return a.FindByEmailPrefixTx(ctx, a.db, local)
}

// FindByEmailPrefixTx matches email LIKE '<local>@%'. A second match is an
// error: fuzzy filters must never silently pick one record.
func (a *users) FindByEmailPrefixTx(ctx context.Context, tx bun.IDB, local string) (*User, error) {
	var records []User
	err := tx.NewSelect().
		Model(&records).
		Where("?TableAlias.email LIKE ?", strings.TrimSpace(local)+"@%").
		Limit(2).
		Scan(ctx)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return singleMatch(records, map[string]any{"email_prefix": local})
}

func (a *users) FindByNameContains(ctx context.Context, fragment string) (*User, error) {
	return a.FindByNameContainsTx(ctx, a.db, fragment)
}

func (a *users) FindByNameContainsTx(ctx context.Context, tx bun.IDB, fragment string) (*User, error) {
	var records []User
	err := tx.NewSelect().
		Model(&records).
		Where("LOWER(?TableAlias.name) LIKE ?", "%"+strings.ToLower(strings.TrimSpace(fragment))+"%").
		Limit(2).
		Scan(ctx)
	if err != nil && !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return singleMatch(records, map[string]any{"name_fragment": fragment})
}

func (a *users) FindByProviderID(ctx context.Context, providerID string) (*User, error) {
	return a.FindByProviderIDTx(ctx, a.db, providerID)
}

func (a *users) FindByProviderIDTx(ctx context.Context, tx bun.IDB, providerID string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias.provider_id = ?", strings.TrimSpace(providerID)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{"provider_id": providerID})
		}
		return nil, err
	}
	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) GetOrCreate(ctx context.Context, record *User) (*User, error) {
	return a.GetOrCreateTx(ctx, a.db, record)
}

func (a *users) GetOrCreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	user, err := a.FindByEmailTx(ctx, tx, record.Email)
	if err == nil {
		return user, nil
	}

	if !repository.IsRecordNotFound(err) {
		return nil, err
	}

	return a.CreateTx(ctx, tx, record)
}

func (a *users) UpdateStatus(ctx context.Context, id uuid.UUID, status UserStatus) (*User, error) {
	return a.UpdateStatusTx(ctx, a.db, id, status)
}

func (a *users) UpdateStatusTx(ctx context.Context, tx bun.IDB, id uuid.UUID, status UserStatus) (*User, error) {
	record := &User{
		ID:     id,
		Status: status,
	}
	return a.Repository.UpdateTx(ctx, tx, record, repository.UpdateByID(id.String()))
}

func (a *users) DeleteByID(ctx context.Context, id uuid.UUID) error {
	return a.DeleteByIDTx(ctx, a.db, id)
}

func (a *users) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}

	if record.Name == "" && record.Email != "" {
		record.Name = EmailDisplayName(record.Email)
	}

	record.EnsureStatus()

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
}

func singleMatch(records []User, meta map[string]any) (*User, error) {
	switch len(records) {
	case 0:
		return nil, repository.NewRecordNotFound().WithMetadata(meta)
	case 1:
		match := records[0]
		return &match, nil
	default:
		return nil, ErrAmbiguousIdentifier.WithMetadata(meta)
	}
}
