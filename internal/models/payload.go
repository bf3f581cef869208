package models

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// ValidationError representa un error de validación
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// fieldAlias maps one logical product field to its accepted payload keys.
// When both keys are present the snake_case value wins.
type fieldAlias struct {
	snake string
	camel string
	set   func(p *ProductPatch, v any) error
	get   func(p ProductPatch) (any, bool)
}

var productFields = []fieldAlias{
	stringField("name", "name", func(p *ProductPatch) **string { return &p.Name }),
	stringField("composition", "composition", func(p *ProductPatch) **string { return &p.Composition }),
	stringField("category", "category", func(p *ProductPatch) **string { return &p.Category }),
	floatField("price", "price", func(p *ProductPatch) **float64 { return &p.Price }),
	floatField("mrp", "mrp", func(p *ProductPatch) **float64 { return &p.MRP }),
	stringField("manufacturer", "manufacturer", func(p *ProductPatch) **string { return &p.Manufacturer }),
	{
		snake: "consumption_type",
		camel: "consumptionType",
		set: func(p *ProductPatch, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			s = strings.ToLower(strings.TrimSpace(s))
			if s != "" && !isConsumptionType(s) {
				return fmt.Errorf("must be one of %s", strings.Join(ConsumptionTypes, ", "))
			}
			p.ConsumptionType = &s
			return nil
		},
		get: func(p ProductPatch) (any, bool) { return deref(p.ConsumptionType) },
	},
	stringField("expiry_date", "expiryDate", func(p *ProductPatch) **string { return &p.ExpiryDate }),
	{
		snake: "prescription_required",
		camel: "prescriptionRequired",
		set: func(p *ProductPatch, v any) error {
			b, err := cast.ToBoolE(v)
			if err != nil {
				return err
			}
			p.PrescriptionRequired = &b
			return nil
		},
		get: func(p ProductPatch) (any, bool) { return deref(p.PrescriptionRequired) },
	},
	stringField("short_description", "shortDescription", func(p *ProductPatch) **string { return &p.ShortDescription }),
	stringField("about", "about", func(p *ProductPatch) **string { return &p.About }),
	stringField("usage", "usage", func(p *ProductPatch) **string { return &p.Usage }),
	stringField("side_effects", "sideEffects", func(p *ProductPatch) **string { return &p.SideEffects }),
	stringField("precautions", "precautions", func(p *ProductPatch) **string { return &p.Precautions }),
	stringField("benefits", "benefits", func(p *ProductPatch) **string { return &p.Benefits }),
	stringField("how_it_works", "howItWorks", func(p *ProductPatch) **string { return &p.HowItWorks }),
	{
		snake: "images",
		camel: "images",
		set: func(p *ProductPatch, v any) error {
			set := NormalizeImages(v)
			p.Images = &set
			return nil
		},
		get: func(p ProductPatch) (any, bool) { return deref(p.Images) },
	},
}

// ParseProductPatch reads a decoded JSON body through the alias table.
// Unknown keys and null values are ignored.
func ParseProductPatch(payload map[string]any) (ProductPatch, error) {
	var patch ProductPatch
	for _, f := range productFields {
		v, ok := lookup(payload, f)
		if !ok {
			continue
		}
		if err := f.set(&patch, v); err != nil {
			return ProductPatch{}, &ValidationError{
				Field:   f.snake,
				Message: fmt.Sprintf("invalid %s: %v", f.snake, err),
			}
		}
	}
	return patch, nil
}

// ParseProductPatchLenient is ParseProductPatch for untrusted suggestions:
// fields that fail coercion are dropped instead of rejecting the whole payload.
func ParseProductPatchLenient(payload map[string]any) ProductPatch {
	var patch ProductPatch
	for _, f := range productFields {
		if v, ok := lookup(payload, f); ok {
			_ = f.set(&patch, v)
		}
	}
	return patch
}

func lookup(payload map[string]any, f fieldAlias) (any, bool) {
	if v, ok := payload[f.snake]; ok && v != nil {
		return v, true
	}
	if v, ok := payload[f.camel]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func stringField(snake, camel string, ref func(*ProductPatch) **string) fieldAlias {
	return fieldAlias{
		snake: snake,
		camel: camel,
		set: func(p *ProductPatch, v any) error {
			s, err := cast.ToStringE(v)
			if err != nil {
				return err
			}
			s = strings.TrimSpace(s)
			*ref(p) = &s
			return nil
		},
		get: func(p ProductPatch) (any, bool) { return deref(*ref(&p)) },
	}
}

func floatField(snake, camel string, ref func(*ProductPatch) **float64) fieldAlias {
	return fieldAlias{
		snake: snake,
		camel: camel,
		set: func(p *ProductPatch, v any) error {
			f, err := cast.ToFloat64E(v)
			if err != nil {
				return err
			}
			if f < 0 {
				return fmt.Errorf("must not be negative")
			}
			*ref(p) = &f
			return nil
		},
		get: func(p ProductPatch) (any, bool) { return deref(*ref(&p)) },
	}
}

func deref[T any](v *T) (any, bool) {
	if v == nil {
		return nil, false
	}
	return *v, true
}

func isConsumptionType(s string) bool {
	for _, t := range ConsumptionTypes {
		if t == s {
			return true
		}
	}
	return false
}
