package feed

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hitoshi/socialwall/internal/model"
)

// TestDeriveAuthorID_Deterministic は同一subjectから常に同じIDが導出されることを検証する。
// フィード項目の所有者判定はこの決定性に依存する。
func TestDeriveAuthorID_Deterministic(t *testing.T) {
	id1 := DeriveAuthorID("alice@example.com")
	id2 := DeriveAuthorID("alice@example.com")

	if id1 != id2 {
		t.Errorf("DeriveAuthorID is not deterministic: %q != %q", id1, id2)
	}
}

// TestDeriveAuthorID_DistinctSubjects は異なるsubjectが異なるIDになることを検証する。
func TestDeriveAuthorID_DistinctSubjects(t *testing.T) {
	idAlice := DeriveAuthorID("alice@example.com")
	idBob := DeriveAuthorID("bob@example.com")

	if idAlice == idBob {
		t.Error("different subjects must derive different author IDs")
	}
}

// TestDeriveAuthorID_IsValidUUID は導出結果がUUID形式であることを検証する。
func TestDeriveAuthorID_IsValidUUID(t *testing.T) {
	id := DeriveAuthorID("alice@example.com")

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("DeriveAuthorID returned non-UUID %q: %v", id, err)
	}
	if parsed.Version() != 5 {
		t.Errorf("UUID version = %d, want 5 (name-based)", parsed.Version())
	}
}

func TestAuthorizeMutation_Owner_Allowed(t *testing.T) {
	subject := "alice@example.com"
	authorID := DeriveAuthorID(subject)

	if err := AuthorizeMutation(subject, authorID); err != nil {
		t.Errorf("owner mutation should be allowed, got %v", err)
	}
}

func TestAuthorizeMutation_NonOwner_Forbidden(t *testing.T) {
	authorID := DeriveAuthorID("alice@example.com")

	err := AuthorizeMutation("bob@example.com", authorID)
	if err == nil {
		t.Fatal("non-owner mutation should be forbidden")
	}

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *model.APIError, got %T", err)
	}
	if apiErr.Code != model.ErrCodeForbidden {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeForbidden)
	}
}
