package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestTokenIssuer_RoundTrip(t *testing.T) {
	issuer := NewTokenIssuer("unit-test-secret", 168)
	userID := uuid.New()
	projectID := uuid.New()

	token, expiresAt, err := issuer.Issue(userID, "vet@example.org", "Asha Vet", RoleVetDoctor, &projectID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected a signed token")
	}
	if until := time.Until(expiresAt); until < 167*time.Hour {
		t.Errorf("expected roughly 168h ttl, got %s", until)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Errorf("expected subject %s, got %s", userID, claims.Subject)
	}
	if claims.Role != RoleVetDoctor {
		t.Errorf("expected vet_doctor, got %s", claims.Role)
	}
	if claims.ProjectID != projectID.String() {
		t.Errorf("expected project %s, got %s", projectID, claims.ProjectID)
	}
}

func TestTokenIssuer_SuperAdminHasNoProject(t *testing.T) {
	issuer := NewTokenIssuer("unit-test-secret", 1)

	token, _, err := issuer.Issue(uuid.New(), "root@example.org", "Root", RoleSuperAdmin, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := issuer.Validate(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.ProjectID != "" {
		t.Errorf("expected empty project claim, got %s", claims.ProjectID)
	}
}

func TestTokenIssuer_RejectsForeignSignature(t *testing.T) {
	issuer := NewTokenIssuer("secret-a", 1)
	other := NewTokenIssuer("secret-b", 1)

	token, _, err := issuer.Issue(uuid.New(), "x@example.org", "X", RoleAdmin, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := other.Validate(token); err == nil {
		t.Fatal("expected validation to fail with a different secret")
	}
}
