package ai

import (
	"fmt"
	"strings"

	"pharma-catalog/internal/models"
)

const systemPrompt = "You are a pharmaceutical content writer for an online pharmacy. " +
	"You answer with a single JSON object and nothing else: no markdown, no code fences, no commentary."

// BuildPrompt renders the user turn for one product.
func BuildPrompt(name, composition string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Product name: %s\n", name)
	fmt.Fprintf(&b, "Composition: %s\n\n", composition)
	b.WriteString("Write factual product copy for this medicine. Return ONLY a JSON object with exactly these keys:\n")
	b.WriteString(`{
  "category": "one of the categories listed below",
  "short_description": "one sentence, at most 160 characters",
  "about": "two or three short paragraphs describing the product",
  "prescription_required": true or false,
  "consumption_type": "one of: ` + strings.Join(models.ConsumptionTypes, ", ") + `",
  "usage": "how to take or apply it",
  "side_effects": "common side effects",
  "precautions": "warnings and contraindications",
  "benefits": "main benefits",
  "how_it_works": "mechanism of action in plain language"
}`)
	b.WriteString("\n\nCategories: ")
	b.WriteString(strings.Join(models.Categories, ", "))
	b.WriteString("\nDo not invent dosages that are not standard for the listed composition.")
	return b.String()
}
