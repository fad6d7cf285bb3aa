package catalog

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/aimerfeng/SkillSwap/internal/models"
	"github.com/aimerfeng/SkillSwap/internal/store/memory"
	"github.com/google/uuid"
	"pgregory.net/rapid"
)

func newTestService() *Service {
	return NewService(memory.New())
}

func register(t *testing.T, svc *Service, name, category string) *models.Skill {
	t.Helper()
	sk, err := svc.Register(context.Background(), &RegisterSkillRequest{Name: name, Category: category})
	if err != nil {
		t.Fatalf("Register(%q) failed: %v", name, err)
	}
	return sk
}

// TestProperty_DuplicateNameCaseInsensitive tests that skill names are unique ignoring case
// *For any* registered name, registering any case variant SHALL fail with ErrDuplicateName.
func TestProperty_DuplicateNameCaseInsensitive(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc := newTestService()
		ctx := context.Background()

		name := rapid.StringMatching(`[a-zA-Z][a-zA-Z ]{0,20}[a-zA-Z]`).Draw(rt, "name")
		if _, err := svc.Register(ctx, &RegisterSkillRequest{Name: name, Category: "General"}); err != nil {
			rt.Fatalf("first Register failed: %v", err)
		}

		variant := strings.ToUpper(name)
		if rapid.Bool().Draw(rt, "lower") {
			variant = strings.ToLower(name)
		}
		_, err := svc.Register(ctx, &RegisterSkillRequest{Name: variant, Category: "Other"})
		if !errors.Is(err, ErrDuplicateName) {
			rt.Fatalf("PROPERTY VIOLATION: registering %q after %q should fail with ErrDuplicateName, got %v", variant, name, err)
		}
	})
}

// TestProperty_ListActiveOrdering tests that active skills are ordered by category then name
// and never include deactivated skills.
func TestProperty_ListActiveOrdering(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		svc := newTestService()
		ctx := context.Background()

		n := rapid.IntRange(1, 15).Draw(rt, "n")
		deactivated := make(map[uuid.UUID]bool)
		for i := 0; i < n; i++ {
			name := rapid.StringMatching(`[A-Z][a-z]{2,8}`).Draw(rt, "name") + string(rune('a'+i))
			category := rapid.SampledFrom([]string{"Languages", "Programming", "Music", "Creative"}).Draw(rt, "category")
			sk, err := svc.Register(ctx, &RegisterSkillRequest{Name: name, Category: category})
			if err != nil {
				continue
			}
			if rapid.Bool().Draw(rt, "deactivate") {
				if _, err := svc.Deactivate(ctx, sk.ID); err != nil {
					rt.Fatalf("Deactivate failed: %v", err)
				}
				deactivated[sk.ID] = true
			}
		}

		skills, err := svc.ListActive(ctx)
		if err != nil {
			rt.Fatalf("ListActive failed: %v", err)
		}
		sorted := sort.SliceIsSorted(skills, func(i, j int) bool {
			if skills[i].Category != skills[j].Category {
				return skills[i].Category < skills[j].Category
			}
			return skills[i].Name < skills[j].Name
		})
		if !sorted {
			rt.Fatal("PROPERTY VIOLATION: active skills must be ordered by category then name")
		}
		for _, sk := range skills {
			if deactivated[sk.ID] || !sk.Active {
				rt.Fatalf("PROPERTY VIOLATION: inactive skill %s listed", sk.Name)
			}
		}

		categories, err := svc.ListCategories(ctx)
		if err != nil {
			rt.Fatalf("ListCategories failed: %v", err)
		}
		if !sort.StringsAreSorted(categories) {
			rt.Fatal("PROPERTY VIOLATION: categories must be lexicographic")
		}
		want := make(map[string]bool)
		for _, sk := range skills {
			want[sk.Category] = true
		}
		if len(want) != len(categories) {
			rt.Fatalf("PROPERTY VIOLATION: expected %d categories, got %d", len(want), len(categories))
		}
	})
}

func TestDeactivate_IdempotentAndResolvable(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	sk := register(t, svc, "Guitar", "Music")

	for i := 0; i < 2; i++ {
		got, err := svc.Deactivate(ctx, sk.ID)
		if err != nil {
			t.Fatalf("Deactivate #%d failed: %v", i+1, err)
		}
		if got.Active {
			t.Fatalf("expected inactive skill after Deactivate #%d", i+1)
		}
	}

	// Deactivated skills stay resolvable by id
	got, err := svc.Get(ctx, sk.ID)
	if err != nil {
		t.Fatalf("Get after deactivate failed: %v", err)
	}
	if got.Active {
		t.Error("expected stored skill to be inactive")
	}

	// but not by name reuse
	if _, err := svc.Register(ctx, &RegisterSkillRequest{Name: "guitar", Category: "Music"}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName for inactive name, got %v", err)
	}

	if _, err := svc.Reactivate(ctx, sk.ID); err != nil {
		t.Fatalf("Reactivate failed: %v", err)
	}
	skills, _ := svc.ListActive(ctx)
	if len(skills) != 1 {
		t.Errorf("expected reactivated skill to be listed, got %d", len(skills))
	}
}

func TestSearch(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	desc := "Learn the fundamentals of frontend frameworks"
	if _, err := svc.Register(ctx, &RegisterSkillRequest{Name: "React JS", Category: "Programming", Description: &desc}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	register(t, svc, "Spanish", "Languages")
	hidden := register(t, svc, "Reactive Streams", "Programming")
	if _, err := svc.Deactivate(ctx, hidden.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"react", []string{"React JS"}},
		{"FRONTEND", []string{"React JS"}},
		{"span", []string{"Spanish"}},
		{"", []string{"Spanish", "React JS"}},
		{"cobol", nil},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := svc.Search(ctx, tt.query)
			if err != nil {
				t.Fatalf("Search failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d results, got %d", len(tt.want), len(got))
			}
			for i, sk := range got {
				if sk.Name != tt.want[i] {
					t.Errorf("result %d: expected %s, got %s", i, tt.want[i], sk.Name)
				}
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	a := register(t, svc, "Piano", "Music")
	register(t, svc, "Drums", "Music")

	taken := "DRUMS"
	if _, err := svc.Update(ctx, a.ID, &UpdateSkillRequest{Name: &taken}); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got %v", err)
	}

	renamed := "Grand Piano"
	got, err := svc.Update(ctx, a.ID, &UpdateSkillRequest{Name: &renamed})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if got.Name != renamed || got.Category != "Music" {
		t.Errorf("unexpected skill after update: %+v", got)
	}

	empty := " "
	if _, err := svc.Update(ctx, a.ID, &UpdateSkillRequest{Category: &empty}); !errors.Is(err, ErrInvalidSkill) {
		t.Errorf("expected ErrInvalidSkill, got %v", err)
	}
	if _, err := svc.Update(ctx, uuid.New(), &UpdateSkillRequest{}); !errors.Is(err, ErrSkillNotFound) {
		t.Errorf("expected ErrSkillNotFound, got %v", err)
	}
}

func TestListByCategory(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	register(t, svc, "Violin", "Music")
	register(t, svc, "Cello", "Music")
	register(t, svc, "French", "Languages")
	hidden := register(t, svc, "Banjo", "Music")
	if _, err := svc.Deactivate(ctx, hidden.ID); err != nil {
		t.Fatalf("Deactivate failed: %v", err)
	}

	got, err := svc.ListByCategory(ctx, "Music")
	if err != nil {
		t.Fatalf("ListByCategory failed: %v", err)
	}
	if len(got) != 2 || got[0].Name != "Cello" || got[1].Name != "Violin" {
		t.Fatalf("expected [Cello Violin], got %+v", got)
	}

	none, err := svc.ListByCategory(ctx, "Cooking")
	if err != nil {
		t.Fatalf("ListByCategory failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no skills, got %d", len(none))
	}
}

func TestRegisterAndUpdate_LengthLimits(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ptr := func(s string) *string { return &s }

	tests := []struct {
		name    string
		req     RegisterSkillRequest
		wantErr bool
	}{
		{"name at limit", RegisterSkillRequest{Name: strings.Repeat("ñ", models.MaxSkillNameLength), Category: "Language"}, false},
		{"name over limit", RegisterSkillRequest{Name: strings.Repeat("n", models.MaxSkillNameLength+1), Category: "Language"}, true},
		{"category at limit", RegisterSkillRequest{Name: "Knitting", Category: strings.Repeat("ç", models.MaxCategoryLength)}, false},
		{"category over limit", RegisterSkillRequest{Name: "Weaving", Category: strings.Repeat("c", models.MaxCategoryLength+1)}, true},
		{"description at limit", RegisterSkillRequest{Name: "Pottery", Category: "Craft", Description: ptr(strings.Repeat("é", models.MaxDescriptionLength))}, false},
		{"description over limit", RegisterSkillRequest{Name: "Glassblowing", Category: "Craft", Description: ptr(strings.Repeat("d", models.MaxDescriptionLength+1))}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			_, err := svc.Register(ctx, &req)
			if tt.wantErr && !errors.Is(err, ErrInvalidSkill) {
				t.Errorf("expected ErrInvalidSkill, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("expected success, got %v", err)
			}
		})
	}

	sk := register(t, svc, "Embroidery", "Craft")
	long := strings.Repeat("d", models.MaxDescriptionLength+1)
	if _, err := svc.Update(ctx, sk.ID, &UpdateSkillRequest{Description: &long}); !errors.Is(err, ErrInvalidSkill) {
		t.Errorf("expected ErrInvalidSkill, got %v", err)
	}
	longName := strings.Repeat("n", models.MaxSkillNameLength+1)
	if _, err := svc.Update(ctx, sk.ID, &UpdateSkillRequest{Name: &longName}); !errors.Is(err, ErrInvalidSkill) {
		t.Errorf("expected ErrInvalidSkill, got %v", err)
	}
	got, err := svc.Get(ctx, sk.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Embroidery" || got.Description != nil {
		t.Errorf("rejected update must not change the skill: %+v", got)
	}
}
