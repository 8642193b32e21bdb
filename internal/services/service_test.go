package services

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/hivedesk/hivedesk-backend/internal/apperr"
	"github.com/hivedesk/hivedesk-backend/internal/models"
)

func TestNormalizeText(t *testing.T) {
	got, err := normalizeText("  hello  ")
	if err != nil || got != "hello" {
		t.Fatalf("expected trimmed text, got %q, %v", got, err)
	}

	if _, err := normalizeText("   "); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("whitespace-only: expected validation error, got %v", err)
	}

	// Limit counts runes, not bytes.
	multibyte := strings.Repeat("ü", models.MaxMessageLength)
	if _, err := normalizeText(multibyte); err != nil {
		t.Fatalf("1000 multibyte runes should pass, got %v", err)
	}
	if _, err := normalizeText(multibyte + "ü"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("1001 runes: expected validation error, got %v", err)
	}
}

func TestNormalizeType(t *testing.T) {
	if got, err := normalizeType(""); err != nil || got != models.MessageTypeText {
		t.Fatalf("empty type should default to text, got %q, %v", got, err)
	}
	if got, err := normalizeType(models.MessageTypeImage); err != nil || got != models.MessageTypeImage {
		t.Fatalf("image should pass through, got %q, %v", got, err)
	}
	if _, err := normalizeType(models.MessageTypeSystem); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("system: expected validation error, got %v", err)
	}
	if _, err := normalizeType("gif"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("unknown: expected validation error, got %v", err)
	}
}

func TestPreview(t *testing.T) {
	if got := preview("short"); got != "short" {
		t.Fatalf("short text should be unchanged, got %q", got)
	}

	long := strings.Repeat("a", 500)
	got := preview(long)
	if utf8.RuneCountInString(got) != notificationPreviewLimit+1 {
		t.Fatalf("expected truncation to %d runes plus ellipsis, got %d", notificationPreviewLimit, utf8.RuneCountInString(got))
	}
	if !strings.HasSuffix(got, "…") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
}

func TestDedupeIDs(t *testing.T) {
	got := dedupeIDs([]string{"a", " b ", "a", "", "c", "b"})
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestAccessRules(t *testing.T) {
	admin := models.Principal{ID: "a", Role: models.RoleAdmin, TenantID: "t1"}
	emp := models.Principal{ID: "e", Role: models.RoleEmployee, TenantID: "t1"}

	g := &models.GroupConversation{Members: []models.Membership{{UserID: "e"}}}

	if !CanReadGroup(admin, g) {
		t.Fatal("admin should read any group")
	}
	if !CanReadGroup(emp, g) {
		t.Fatal("member should read their group")
	}
	if CanReadGroup(models.Principal{ID: "other", Role: models.RoleEmployee}, g) {
		t.Fatal("non-member employee should not read")
	}

	if !CanManageGroup(admin) || CanManageGroup(emp) {
		t.Fatal("only admins manage groups")
	}

	msg := &models.GroupMessage{SenderID: "e"}
	if !CanDeleteGroupMessage(emp, msg) {
		t.Fatal("sender should delete own message")
	}
	if !CanDeleteGroupMessage(admin, msg) {
		t.Fatal("admin should delete any message")
	}
	if CanDeleteGroupMessage(models.Principal{ID: "other", Role: models.RoleEmployee}, msg) {
		t.Fatal("other employees should not delete")
	}

	dm := &models.DirectMessage{SenderID: "e", ReceiverID: "a"}
	if !IsDirectParticipant(emp, dm) || !IsDirectParticipant(admin, dm) {
		t.Fatal("both endpoints are participants")
	}
	if IsDirectParticipant(models.Principal{ID: "other"}, dm) {
		t.Fatal("outsiders are not participants")
	}
}
