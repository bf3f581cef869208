package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product representa un producto del catálogo de farmacia
type Product struct {
	ID                   primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Slug                 string             `json:"slug" bson:"slug"`
	Name                 string             `json:"name" bson:"name"`
	Composition          string             `json:"composition" bson:"composition"`
	Category             string             `json:"category" bson:"category"`
	Price                float64            `json:"price" bson:"price"`
	MRP                  float64            `json:"mrp" bson:"mrp"`
	Manufacturer         string             `json:"manufacturer" bson:"manufacturer"`
	ConsumptionType      string             `json:"consumption_type" bson:"consumption_type"`
	ExpiryDate           string             `json:"expiry_date,omitempty" bson:"expiry_date,omitempty"`
	PrescriptionRequired bool               `json:"prescription_required" bson:"prescription_required"`
	ShortDescription     string             `json:"short_description,omitempty" bson:"short_description,omitempty"`
	About                string             `json:"about,omitempty" bson:"about,omitempty"`
	Usage                string             `json:"usage,omitempty" bson:"usage,omitempty"`
	SideEffects          string             `json:"side_effects,omitempty" bson:"side_effects,omitempty"`
	Precautions          string             `json:"precautions,omitempty" bson:"precautions,omitempty"`
	Benefits             string             `json:"benefits,omitempty" bson:"benefits,omitempty"`
	HowItWorks           string             `json:"how_it_works,omitempty" bson:"how_it_works,omitempty"`
	Images               ImageSet           `json:"images" bson:"images"`
	CreatedAt            time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at" bson:"updated_at"`

	// URL absoluta de la tienda; se completa al leer
	URL string `json:"url,omitempty" bson:"-"`
}

// ProductPatch contiene los campos presentes en un payload de alta o edición.
// Un puntero nil significa que la clave no vino y el valor guardado no cambia.
type ProductPatch struct {
	Name                 *string
	Composition          *string
	Category             *string
	Price                *float64
	MRP                  *float64
	Manufacturer         *string
	ConsumptionType      *string
	ExpiryDate           *string
	PrescriptionRequired *bool
	ShortDescription     *string
	About                *string
	Usage                *string
	SideEffects          *string
	Precautions          *string
	Benefits             *string
	HowItWorks           *string
	Images               *ImageSet
}

// Categories es la lista de categorías del panel admin y del prompt de IA
var Categories = []string{
	"Pain Relief",
	"Antibiotics",
	"Cardiovascular",
	"Diabetes",
	"Gastrointestinal",
	"Respiratory",
	"Dermatology",
	"Neurology",
	"Vitamins & Supplements",
	"Hormones",
	"Oncology",
	"Other",
}

// ConsumptionTypes son las vías de administración aceptadas
var ConsumptionTypes = []string{"oral", "injection", "topical", "inhalation"}

// IsEmpty indica si el patch no trae ningún campo
func (p ProductPatch) IsEmpty() bool {
	return p == ProductPatch{}
}

// NewProduct arma un producto nuevo; name y price son obligatorios
func NewProduct(p ProductPatch, now time.Time) (*Product, error) {
	if p.Name == nil || *p.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "name is required"}
	}
	if p.Price == nil {
		return nil, &ValidationError{Field: "price", Message: "price is required"}
	}

	product := &Product{Images: DefaultImages()}
	p.Apply(product)
	if p.MRP == nil || *p.MRP == 0 {
		product.MRP = product.Price
	}
	product.CreatedAt = now
	product.UpdatedAt = now
	return product, nil
}

// Apply copia los campos presentes sobre el producto
func (p ProductPatch) Apply(product *Product) {
	setString(&product.Name, p.Name)
	setString(&product.Composition, p.Composition)
	setString(&product.Category, p.Category)
	setString(&product.Manufacturer, p.Manufacturer)
	setString(&product.ConsumptionType, p.ConsumptionType)
	setString(&product.ExpiryDate, p.ExpiryDate)
	setString(&product.ShortDescription, p.ShortDescription)
	setString(&product.About, p.About)
	setString(&product.Usage, p.Usage)
	setString(&product.SideEffects, p.SideEffects)
	setString(&product.Precautions, p.Precautions)
	setString(&product.Benefits, p.Benefits)
	setString(&product.HowItWorks, p.HowItWorks)
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.MRP != nil {
		product.MRP = *p.MRP
	}
	if p.PrescriptionRequired != nil {
		product.PrescriptionRequired = *p.PrescriptionRequired
	}
	if p.Images != nil {
		product.Images = *p.Images
	}
}

// SetDocument devuelve el documento $set para una actualización parcial
func (p ProductPatch) SetDocument() bson.M {
	set := bson.M{}
	putString(set, "name", p.Name)
	putString(set, "composition", p.Composition)
	putString(set, "category", p.Category)
	putString(set, "manufacturer", p.Manufacturer)
	putString(set, "consumption_type", p.ConsumptionType)
	putString(set, "expiry_date", p.ExpiryDate)
	putString(set, "short_description", p.ShortDescription)
	putString(set, "about", p.About)
	putString(set, "usage", p.Usage)
	putString(set, "side_effects", p.SideEffects)
	putString(set, "precautions", p.Precautions)
	putString(set, "benefits", p.Benefits)
	putString(set, "how_it_works", p.HowItWorks)
	if p.Price != nil {
		set["price"] = *p.Price
	}
	if p.MRP != nil {
		set["mrp"] = *p.MRP
	}
	if p.PrescriptionRequired != nil {
		set["prescription_required"] = *p.PrescriptionRequired
	}
	if p.Images != nil {
		set["images"] = *p.Images
	}
	return set
}

// MergeNonEmpty aplica sobre p solo los valores no vacíos del borrador;
// lo que el borrador deja en blanco conserva el valor del formulario.
func (p ProductPatch) MergeNonEmpty(draft ProductPatch) ProductPatch {
	mergeString(&p.Name, draft.Name)
	mergeString(&p.Composition, draft.Composition)
	mergeString(&p.Category, draft.Category)
	mergeString(&p.Manufacturer, draft.Manufacturer)
	mergeString(&p.ConsumptionType, draft.ConsumptionType)
	mergeString(&p.ExpiryDate, draft.ExpiryDate)
	mergeString(&p.ShortDescription, draft.ShortDescription)
	mergeString(&p.About, draft.About)
	mergeString(&p.Usage, draft.Usage)
	mergeString(&p.SideEffects, draft.SideEffects)
	mergeString(&p.Precautions, draft.Precautions)
	mergeString(&p.Benefits, draft.Benefits)
	mergeString(&p.HowItWorks, draft.HowItWorks)
	if draft.PrescriptionRequired != nil {
		p.PrescriptionRequired = draft.PrescriptionRequired
	}
	if draft.Price != nil && *draft.Price > 0 {
		p.Price = draft.Price
	}
	if draft.MRP != nil && *draft.MRP > 0 {
		p.MRP = draft.MRP
	}
	return p
}

// Form devuelve el patch en snake_case, como lo usa el formulario admin
func (p ProductPatch) Form() map[string]any {
	form := map[string]any{}
	for _, f := range productFields {
		if v, ok := f.get(p); ok {
			form[f.snake] = v
		}
	}
	return form
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func putString(set bson.M, key string, v *string) {
	if v != nil {
		set[key] = *v
	}
}

func mergeString(dst **string, v *string) {
	if v != nil && *v != "" {
		*dst = v
	}
}
