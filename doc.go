// Package access resolves admin console identifiers into user records and
// derives per-application access from role slugs.
//
// Identity resolution:
//   - Resolve accepts every identifier shape the console produces: provider
//     IDs, phone and wallet slugs, raw emails, dash-for-dot email slugs, and
//     bare username fragments. Each shape is parsed once into an Identifier
//     and looked up through the Users repository; a fragment matching more
//     than one record returns ErrAmbiguousIdentifier instead of guessing.
//   - The reserved super admin aliases always resolve, falling back to a
//     synthetic in-memory record when the backing row is missing.
//
// Role taxonomy:
//   - Catalog owns the application registry and the role grammar: the global
//     admin and super_admin roles plus per-app <app>-admin and <app>-member
//     slugs. Deriver turns a role list into accessible apps, display labels,
//     and a computed account status.
//   - SyncEngine rebuilds app-scoped roles from an app selection while
//     leaving unknown base roles untouched; running it twice with the same
//     selection is a no-op.
//
// Credential linking:
//   - CredentialLinker walks phone and wallet credentials through a
//     begin/confirm state machine backed by an IdentityProvider. Confirmed
//     links persist immediately; a persistence failure after a provider-side
//     link surfaces ErrLinkNotSaved so callers can retry the save alone.
//
// Activity sinks:
//   - ActivitySink receives audit events from the command handlers, the
//     linker, and the allowlist syncer. Sinks run best-effort (errors are
//     logged) so forwarding to a database or queue cannot block a request.
package access
