package participant

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store/memory"
	"github.com/google/uuid"
)

func TestRegisterAndGet(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	p, err := svc.Register(ctx, &RegisterRequest{Username: "  alice "})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if p.Username != "alice" || p.DisplayName != "alice" {
		t.Errorf("expected trimmed username and default display name, got %q/%q", p.Username, p.DisplayName)
	}
	if p.Role != models.ParticipantRoleMember {
		t.Errorf("expected member role, got %s", p.Role)
	}

	got, err := svc.Get(ctx, p.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.ID != p.ID {
		t.Errorf("expected %s, got %s", p.ID, got.ID)
	}

	if _, err := svc.Register(ctx, &RegisterRequest{Username: "ALICE"}); !errors.Is(err, ErrDuplicateUsername) {
		t.Errorf("expected ErrDuplicateUsername, got %v", err)
	}
	if _, err := svc.Register(ctx, &RegisterRequest{Username: "   "}); !errors.Is(err, ErrInvalidParticipant) {
		t.Errorf("expected ErrInvalidParticipant, got %v", err)
	}
}

func TestExists_InactiveIsAbsent(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewService(st)

	inactive := &models.Participant{ID: uuid.New(), Username: "bob", DisplayName: "Bob", Role: models.ParticipantRoleMember}
	if err := st.CreateParticipant(ctx, inactive); err != nil {
		t.Fatalf("CreateParticipant failed: %v", err)
	}

	ok, err := svc.Exists(ctx, inactive.ID)
	if err != nil || ok {
		t.Errorf("inactive participant should not exist, got %v/%v", ok, err)
	}
	if _, err := svc.Get(ctx, inactive.ID); !errors.Is(err, ErrParticipantNotFound) {
		t.Errorf("expected ErrParticipantNotFound, got %v", err)
	}

	ok, err = svc.Exists(ctx, uuid.New())
	if err != nil || ok {
		t.Errorf("unknown participant should not exist, got %v/%v", ok, err)
	}
}

func TestRegister_LengthLimits(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New())

	tests := []struct {
		name        string
		username    string
		displayName string
		wantErr     bool
	}{
		{"username at limit", strings.Repeat("ü", models.MaxUsernameLength), "", false},
		{"username over limit", strings.Repeat("u", models.MaxUsernameLength+1), "", true},
		{"display name at limit", "carol", strings.Repeat("ö", models.MaxDisplayNameLength), false},
		{"display name over limit", "dave", strings.Repeat("d", models.MaxDisplayNameLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, &RegisterRequest{Username: tt.username, DisplayName: tt.displayName})
			if tt.wantErr && !errors.Is(err, ErrInvalidParticipant) {
				t.Errorf("expected ErrInvalidParticipant, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected success, got %v", err)
			}
		})
	}
}
