package models

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVisibleAnnouncements(t *testing.T) {
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	list := []Announcement{
		{Title: "inactive", IsActive: false, Priority: 9, CreatedAt: now},
		{Title: "expired", IsActive: true, Priority: 9, ExpiresAt: &past, CreatedAt: now},
		{Title: "low-old", IsActive: true, Priority: 1, CreatedAt: now.Add(-48 * time.Hour)},
		{Title: "low-new", IsActive: true, Priority: 1, CreatedAt: now.Add(-time.Hour)},
		{Title: "high", IsActive: true, Priority: 5, ExpiresAt: &future, CreatedAt: now.Add(-72 * time.Hour)},
	}

	got := VisibleAnnouncements(list, now)

	titles := make([]string, len(got))
	for i, a := range got {
		titles[i] = a.Title
	}
	assert.Equal(t, []string{"high", "low-new", "low-old"}, titles)
}

func TestAnnouncementIsVisibleAtExactExpiry(t *testing.T) {
	now := time.Now()
	a := Announcement{IsActive: true, ExpiresAt: &now}
	assert.False(t, a.IsVisible(now))
}

func TestAnnouncementInputValidate(t *testing.T) {
	valid := AnnouncementInput{Title: "Sale", Message: "20% off", Type: "sale"}
	require.NoError(t, valid.Validate())

	tests := map[string]struct {
		in    AnnouncementInput
		field string
	}{
		"missing title": {AnnouncementInput{Message: "m"}, "title"},
		"bad type":      {AnnouncementInput{Title: "t", Message: "m", Type: "promo"}, "type"},
		"bad link":      {AnnouncementInput{Title: "t", Message: "m", LinkURL: "not a url"}, "link_url"},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			err := tc.in.Validate()
			var ve *ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tc.field, ve.Field)
		})
	}
}

func TestAnnouncementInputDefaults(t *testing.T) {
	now := time.Now()
	a := AnnouncementInput{Title: " New stock ", Message: "Vitamin D is back"}.Announcement(now)

	assert.Equal(t, AnnouncementInfo, a.Type)
	assert.True(t, a.IsActive)
	assert.Equal(t, "New stock", a.Title)
	assert.Equal(t, now, a.CreatedAt)
}

func TestAnnouncementPatch(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	a := &Announcement{Title: "old", IsActive: true, ExpiresAt: &expiry, Priority: 1}
	title := "new"
	inactive := false

	patch := AnnouncementPatch{Title: &title, IsActive: &inactive, ClearExpiry: true}
	require.NoError(t, patch.Validate())
	patch.Apply(a)

	assert.Equal(t, "new", a.Title)
	assert.False(t, a.IsActive)
	assert.Nil(t, a.ExpiresAt)
	assert.Equal(t, 1, a.Priority)

	doc := patch.UpdateDocument()
	assert.Contains(t, doc, "$set")
	assert.Contains(t, doc, "$unset")
}
