package models

import (
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AnnouncementType drives banner styling on the storefront.
type AnnouncementType string

const (
	AnnouncementInfo       AnnouncementType = "info"
	AnnouncementSuccess    AnnouncementType = "success"
	AnnouncementWarning    AnnouncementType = "warning"
	AnnouncementError      AnnouncementType = "error"
	AnnouncementSale       AnnouncementType = "sale"
	AnnouncementNewProduct AnnouncementType = "new_product"
	AnnouncementUpdate     AnnouncementType = "update"
)

type Announcement struct {
	ID        primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Title     string             `json:"title" bson:"title"`
	Message   string             `json:"message" bson:"message"`
	Type      AnnouncementType   `json:"type" bson:"type"`
	LinkURL   string             `json:"link_url,omitempty" bson:"link_url,omitempty"`
	LinkText  string             `json:"link_text,omitempty" bson:"link_text,omitempty"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	Priority  int                `json:"priority" bson:"priority"`
	ExpiresAt *time.Time         `json:"expires_at,omitempty" bson:"expires_at,omitempty"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

// AnnouncementInput is the admin create payload.
type AnnouncementInput struct {
	Title     string     `json:"title" validate:"required,max=200"`
	Message   string     `json:"message" validate:"required,max=2000"`
	Type      string     `json:"type" validate:"omitempty,oneof=info success warning error sale new_product update"`
	LinkURL   string     `json:"link_url" validate:"omitempty,url"`
	LinkText  string     `json:"link_text" validate:"max=100"`
	IsActive  *bool      `json:"is_active"`
	Priority  int        `json:"priority"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// AnnouncementPatch is the admin partial-update payload.
type AnnouncementPatch struct {
	Title     *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Message   *string    `json:"message" validate:"omitempty,min=1,max=2000"`
	Type      *string    `json:"type" validate:"omitempty,oneof=info success warning error sale new_product update"`
	LinkURL   *string    `json:"link_url" validate:"omitempty,url"`
	LinkText  *string    `json:"link_text" validate:"omitempty,max=100"`
	IsActive  *bool      `json:"is_active"`
	Priority  *int       `json:"priority"`
	ExpiresAt *time.Time `json:"expires_at"`
	// ClearExpiry removes a previously set expiry.
	ClearExpiry bool `json:"clear_expiry"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks the input and converts the first failure into a ValidationError.
func (in AnnouncementInput) Validate() error {
	return toValidationError(validate.Struct(in))
}

func (p AnnouncementPatch) Validate() error {
	return toValidationError(validate.Struct(p))
}

// Announcement builds a new record. Announcements are active unless stated otherwise.
func (in AnnouncementInput) Announcement(now time.Time) *Announcement {
	a := &Announcement{
		Title:     strings.TrimSpace(in.Title),
		Message:   strings.TrimSpace(in.Message),
		Type:      AnnouncementType(in.Type),
		LinkURL:   strings.TrimSpace(in.LinkURL),
		LinkText:  strings.TrimSpace(in.LinkText),
		IsActive:  true,
		Priority:  in.Priority,
		ExpiresAt: in.ExpiresAt,
		CreatedAt: now,
	}
	if a.Type == "" {
		a.Type = AnnouncementInfo
	}
	if in.IsActive != nil {
		a.IsActive = *in.IsActive
	}
	return a
}

func (p AnnouncementPatch) Apply(a *Announcement) {
	setString(&a.Title, p.Title)
	setString(&a.Message, p.Message)
	setString(&a.LinkURL, p.LinkURL)
	setString(&a.LinkText, p.LinkText)
	if p.Type != nil {
		a.Type = AnnouncementType(*p.Type)
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	if p.Priority != nil {
		a.Priority = *p.Priority
	}
	if p.ExpiresAt != nil {
		a.ExpiresAt = p.ExpiresAt
	}
	if p.ClearExpiry {
		a.ExpiresAt = nil
	}
}

// UpdateDocument returns the $set/$unset update for a partial change.
func (p AnnouncementPatch) UpdateDocument() bson.M {
	set := bson.M{}
	putString(set, "title", p.Title)
	putString(set, "message", p.Message)
	putString(set, "type", p.Type)
	putString(set, "link_url", p.LinkURL)
	putString(set, "link_text", p.LinkText)
	if p.IsActive != nil {
		set["is_active"] = *p.IsActive
	}
	if p.Priority != nil {
		set["priority"] = *p.Priority
	}
	if p.ExpiresAt != nil && !p.ClearExpiry {
		set["expires_at"] = *p.ExpiresAt
	}

	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if p.ClearExpiry {
		update["$unset"] = bson.M{"expires_at": ""}
	}
	return update
}

// IsVisible reports whether the announcement may be shown publicly at now.
func (a Announcement) IsVisible(now time.Time) bool {
	return a.IsActive && (a.ExpiresAt == nil || a.ExpiresAt.After(now))
}

// SortForDisplay orders by priority desc, then newest first.
func SortForDisplay(list []Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Priority != list[j].Priority {
			return list[i].Priority > list[j].Priority
		}
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
}

// VisibleAnnouncements filters and orders announcements for the public banner.
func VisibleAnnouncements(list []Announcement, now time.Time) []Announcement {
	out := make([]Announcement, 0, len(list))
	for _, a := range list {
		if a.IsVisible(now) {
			out = append(out, a)
		}
	}
	SortForDisplay(out)
	return out
}

func toValidationError(err error) error {
	if err == nil {
		return nil
	}
	if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
		fe := errs[0]
		field := fe.Field()
		return &ValidationError{Field: field, Message: field + " failed " + fe.Tag() + " validation"}
	}
	return &ValidationError{Message: err.Error()}
}
