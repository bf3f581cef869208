package models

import (
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PlaceholderImageURL stands in for a product without a usable primary image.
const PlaceholderImageURL = "/images/placeholder-product.png"

// ImageSet is the canonical image shape served to every consumer.
type ImageSet struct {
	Main    string   `json:"main" bson:"main"`
	Gallery []string `json:"gallery" bson:"gallery"`
}

// DefaultImages is the placeholder-only set.
func DefaultImages() ImageSet {
	return ImageSet{Main: PlaceholderImageURL, Gallery: []string{}}
}

// HasMain reports whether Main is a real image rather than the placeholder.
func (s ImageSet) HasMain() bool {
	return s.Main != "" && s.Main != PlaceholderImageURL
}

// Ensure fills in a zero-value set (field missing from the stored document).
func (s ImageSet) Ensure() ImageSet {
	if strings.TrimSpace(s.Main) == "" {
		return NormalizeImages(map[string]any{"gallery": toAnySlice(s.Gallery)})
	}
	if s.Gallery == nil {
		s.Gallery = []string{}
	}
	return s
}

// Append adds uploaded URLs to the gallery. The first URL becomes Main when
// the set only has the placeholder.
func (s ImageSet) Append(urls ...string) ImageSet {
	s = s.Ensure()
	gallery := dedupe(append(append([]string{}, s.Gallery...), flatten(toAnySlice(urls))...))
	main := s.Main
	if !s.HasMain() && len(gallery) > 0 {
		main = gallery[0]
	}
	return ImageSet{Main: main, Gallery: gallery}
}

// UnmarshalBSONValue normalizes whatever shape was persisted for images.
func (s *ImageSet) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var raw interface{}
	if err := (bson.RawValue{Type: t, Value: data}).Unmarshal(&raw); err != nil {
		*s = DefaultImages()
		return nil
	}
	*s = NormalizeImages(raw)
	return nil
}

// NormalizeImages converts any historically stored images value into the
// canonical set. It never fails: unknown shapes degrade to DefaultImages.
func NormalizeImages(raw any) ImageSet {
	if isFalsy(raw) {
		return DefaultImages()
	}

	if s, ok := raw.(string); ok {
		return fromList(flatten(s))
	}
	if list, ok := asList(raw); ok {
		return fromList(flatten(list))
	}

	obj, ok := asObject(raw)
	if !ok {
		return DefaultImages()
	}
	main, hasMain := obj["main"]
	gallery, hasGallery := obj["gallery"]

	if m, ok := main.(string); ok && strings.TrimSpace(m) != "" {
		return ImageSet{Main: strings.TrimSpace(m), Gallery: dedupe(flatten(gallery))}
	}
	if list, ok := asList(main); hasMain && ok {
		return fromList(append(flatten(list), flatten(gallery)...))
	}
	if hasGallery {
		return fromList(flatten(gallery))
	}
	return DefaultImages()
}

func fromList(urls []string) ImageSet {
	urls = dedupe(urls)
	if len(urls) == 0 {
		return DefaultImages()
	}
	return ImageSet{Main: urls[0], Gallery: urls}
}

// flatten walks nested lists and keeps trimmed non-empty strings only.
func flatten(x any) []string {
	if s, ok := x.(string); ok {
		if t := strings.TrimSpace(s); t != "" {
			return []string{t}
		}
		return nil
	}
	list, ok := asList(x)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		out = append(out, flatten(item)...)
	}
	return out
}

func dedupe(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

func asList(x any) ([]any, bool) {
	switch v := x.(type) {
	case []any:
		return v, true
	case primitive.A:
		return []any(v), true
	case []string:
		return toAnySlice(v), true
	default:
		return nil, false
	}
}

func asObject(x any) (map[string]any, bool) {
	switch v := x.(type) {
	case map[string]any:
		return v, true
	case primitive.M:
		return map[string]any(v), true
	case primitive.D:
		out := make(map[string]any, len(v))
		for _, e := range v {
			out[e.Key] = e.Value
		}
		return out, true
	default:
		return nil, false
	}
}

func isFalsy(x any) bool {
	switch v := x.(type) {
	case nil:
		return true
	case bool:
		return !v
	case string:
		return strings.TrimSpace(v) == ""
	case float64:
		return v == 0
	case int:
		return v == 0
	case int32:
		return v == 0
	case int64:
		return v == 0
	}
	return false
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
