// Package privy implements access.IdentityProvider and access token
// validation against the Privy API.
//
// The provider is the source of truth for linked credential values (email,
// phone, wallet); the local store keeps roles and status. Verification
// flows run through Privy's account verify endpoints and surface only an
// opaque token to the linking state machine.
package privy
