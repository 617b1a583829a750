package access

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeUserNotFound        = "USER_NOT_FOUND"
	textCodeAmbiguousIdentifier = "AMBIGUOUS_IDENTIFIER"
	textCodeSuperAdminProtected = "SUPER_ADMIN_PROTECTED"
	textCodeProviderUnavailable = "IDENTITY_PROVIDER_UNAVAILABLE"
	textCodeLinkNotSaved        = "CREDENTIAL_LINK_NOT_SAVED"
	textCodeInvalidLink         = "INVALID_LINK_TRANSITION"
	textCodeVerificationFailed  = "CREDENTIAL_VERIFICATION_FAILED"
)

// ErrUserNotFound is returned when an identifier resolves to zero records.
// Terminal; callers must not retry.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(textCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrAmbiguousIdentifier is returned when a fuzzy identifier filter matches
// more than one record. Surfaced verbatim, never silently picks one.
var ErrAmbiguousIdentifier = goerrors.New("identifier matches multiple users", goerrors.CategoryConflict).
	WithTextCode(textCodeAmbiguousIdentifier).
	WithCode(goerrors.CodeConflict)

// ErrSuperAdminProtected is returned for delete attempts against the
// distinguished super admin identity or its legacy aliases.
var ErrSuperAdminProtected = goerrors.New("the super admin account cannot be deleted", goerrors.CategoryAuthz).
	WithTextCode(textCodeSuperAdminProtected).
	WithCode(goerrors.CodeForbidden)

// ErrProviderUnavailable wraps transient identity provider failures. Read
// paths degrade to locally stored values instead of failing resolution.
var ErrProviderUnavailable = goerrors.New("identity provider unavailable", goerrors.CategoryOperation).
	WithTextCode(textCodeProviderUnavailable).
	WithCode(goerrors.CodeInternal)

// ErrLinkNotSaved reports a store write failure after the provider already
// accepted the link: the credential is linked upstream but not saved
// locally. Callers retry the save; re-issuing the same link value is a
// no-op at the provider, so no compensating unlink is attempted.
var ErrLinkNotSaved = goerrors.New("credential linked but not saved, retry save", goerrors.CategoryInternal).
	WithTextCode(textCodeLinkNotSaved).
	WithCode(goerrors.CodeInternal)

// ErrInvalidLinkTransition is returned when a credential operation is not
// valid from the slot's current state.
var ErrInvalidLinkTransition = goerrors.New("invalid credential link transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidLink).
	WithCode(goerrors.CodeBadRequest)

// ErrVerificationFailed is returned when the provider rejects the link
// proof. No local state changes.
var ErrVerificationFailed = goerrors.New("credential verification failed", goerrors.CategoryValidation).
	WithTextCode(textCodeVerificationFailed).
	WithCode(goerrors.CodeBadRequest)

// IsNotFound checks for resolver and repository not-found errors.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrUserNotFound) {
		return true
	}
	return goerrors.IsNotFound(err)
}
