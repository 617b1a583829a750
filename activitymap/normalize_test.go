package activitymap_test

import (
	"context"
	"testing"
	"time"

	access "github.com/forgeworks/go-access"
	"github.com/forgeworks/go-access/activitymap"
)

func TestNormalizeDefaults(t *testing.T) {
	t.Parallel()

	ts := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	event := access.ActivityEvent{
		EventType:  access.ActivityEventUserStatusChanged,
		Actor:      access.ActorRef{ID: "admin-42", Type: "admin"},
		UserID:     "did:privy:user-100",
		FromStatus: access.UserStatusActive,
		ToStatus:   access.UserStatusSuspended,
		Metadata: map[string]any{
			"reason": "offboarding",
		},
		OccurredAt: ts,
	}

	out := activitymap.Normalize(event)

	if out.ActorID != "admin-42" {
		t.Fatalf("expected actor_id admin-42, got %q", out.ActorID)
	}
	if out.Verb != string(access.ActivityEventUserStatusChanged) {
		t.Fatalf("expected verb %q, got %q", access.ActivityEventUserStatusChanged, out.Verb)
	}
	if out.ObjectType != "user" {
		t.Fatalf("expected object_type user, got %q", out.ObjectType)
	}
	if out.ObjectID != "did:privy:user-100" {
		t.Fatalf("expected object_id did:privy:user-100, got %q", out.ObjectID)
	}
	if out.Channel != "access" {
		t.Fatalf("expected channel access, got %q", out.Channel)
	}
	if !out.OccurredAt.Equal(ts) {
		t.Fatalf("expected occurred_at %v, got %v", ts, out.OccurredAt)
	}

	if out.Metadata["reason"] != "offboarding" {
		t.Fatalf("expected metadata reason offboarding, got %#v", out.Metadata["reason"])
	}
	if out.Metadata[activitymap.MetadataKeyActorType] != "admin" {
		t.Fatalf("expected metadata actor_type admin, got %#v", out.Metadata[activitymap.MetadataKeyActorType])
	}
	if out.Metadata[activitymap.MetadataKeyFromStatus] != string(access.UserStatusActive) {
		t.Fatalf("expected metadata from_status, got %#v", out.Metadata[activitymap.MetadataKeyFromStatus])
	}
	if out.Metadata[activitymap.MetadataKeyToStatus] != string(access.UserStatusSuspended) {
		t.Fatalf("expected metadata to_status, got %#v", out.Metadata[activitymap.MetadataKeyToStatus])
	}
}

func TestNormalizeFallbacks(t *testing.T) {
	t.Parallel()

	out := activitymap.Normalize(access.ActivityEvent{
		EventType: access.ActivityEventAllowlistSynced,
	})

	if out.ActorID != "system" {
		t.Fatalf("expected fallback actor system, got %q", out.ActorID)
	}
	if out.ObjectID != "" {
		t.Fatalf("expected empty object_id, got %q", out.ObjectID)
	}
	if out.OccurredAt.IsZero() {
		t.Fatal("expected occurred_at to be stamped")
	}
	if out.Metadata != nil {
		t.Fatalf("expected nil metadata, got %#v", out.Metadata)
	}
}

func TestNormalizeOptions(t *testing.T) {
	t.Parallel()

	event := access.ActivityEvent{
		EventType: access.ActivityEventCredentialLinked,
		UserID:    "did:privy:user-7",
		Metadata: map[string]any{
			"credential": "wallet",
		},
	}

	out := activitymap.Normalize(event,
		activitymap.WithChannel("audit"),
		activitymap.WithObjectType("credential"),
		activitymap.WithObjectID(func(e access.ActivityEvent) string {
			cred, _ := e.Metadata["credential"].(string)
			return cred
		}),
	)

	if out.Channel != "audit" {
		t.Fatalf("expected channel audit, got %q", out.Channel)
	}
	if out.ObjectType != "credential" {
		t.Fatalf("expected object_type credential, got %q", out.ObjectType)
	}
	if out.ObjectID != "wallet" {
		t.Fatalf("expected object_id wallet, got %q", out.ObjectID)
	}
}

func TestNormalizeDoesNotMutateEventMetadata(t *testing.T) {
	t.Parallel()

	event := access.ActivityEvent{
		EventType:  access.ActivityEventUserEdited,
		Actor:      access.ActorRef{ID: "admin-1", Type: "admin"},
		UserID:     "did:privy:user-9",
		Metadata:   map[string]any{"field": "name"},
		OccurredAt: time.Now().UTC(),
	}

	_ = activitymap.Normalize(event)

	if len(event.Metadata) != 1 {
		t.Fatalf("expected source metadata untouched, got %#v", event.Metadata)
	}
	if _, exists := event.Metadata[activitymap.MetadataKeyActorType]; exists {
		t.Fatal("expected actor_type to be absent from source metadata")
	}
}

func TestSinkAdapter(t *testing.T) {
	t.Parallel()

	var got []activitymap.Normalized
	sink := activitymap.Sink(func(_ context.Context, record activitymap.Normalized) error {
		got = append(got, record)
		return nil
	}, activitymap.WithChannel("feed"))

	err := sink.Record(context.Background(), access.ActivityEvent{
		EventType: access.ActivityEventUserCreated,
		UserID:    "did:privy:user-3",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("expected one record, got %d", len(got))
	}
	if got[0].Channel != "feed" {
		t.Fatalf("expected channel feed, got %q", got[0].Channel)
	}
	if got[0].Verb != string(access.ActivityEventUserCreated) {
		t.Fatalf("expected verb user.created, got %q", got[0].Verb)
	}
}
