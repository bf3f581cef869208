package ai

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlainObject(t *testing.T) {
	d, err := Parse(`{"category":"Pain Relief","prescription_required":false}`)
	require.NoError(t, err)
	assert.Equal(t, "Pain Relief", d["category"])
	assert.Equal(t, false, d["prescription_required"])
}

func TestParseFencedObject(t *testing.T) {
	raw := "```json\n{\"category\":\"Antibiotics\",\"usage\":\"Twice daily\"}\n```"
	d, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "Antibiotics", d["category"])
	assert.Equal(t, "Twice daily", d["usage"])
}

func TestParseIgnoresSurroundingProse(t *testing.T) {
	d, err := Parse("Sure! Here is the draft:\n{\"about\":\"Relieves pain {fast}\"}")
	require.NoError(t, err)
	assert.Equal(t, "Relieves pain {fast}", d["about"])
}

func TestParseTruncated(t *testing.T) {
	for _, raw := range []string{
		`{"category":"Pain Relief","about":"Ibuprofen is a non-ster`,
		"",
		"   ",
		"```json\n{\"category\":\"Pain",
	} {
		_, err := Parse(raw)
		require.Error(t, err, raw)
		assert.Equal(t, KindTruncated, KindOf(err), raw)
	}
}

func TestParseMalformed(t *testing.T) {
	_, err := Parse(`{"category": "Pain Relief", "about": }`)
	require.Error(t, err)
	assert.Equal(t, KindMalformed, KindOf(err))

	var aiErr *Error
	require.ErrorAs(t, err, &aiErr)
	assert.NotEmpty(t, aiErr.Excerpt)
	assert.Error(t, aiErr.Unwrap())
}

func TestParseMalformedExcerptIsBounded(t *testing.T) {
	raw := "{" + strings.Repeat("x", 1000) + "}"
	_, err := Parse(raw)

	var aiErr *Error
	require.ErrorAs(t, err, &aiErr)
	assert.Equal(t, KindMalformed, aiErr.Kind)
	assert.Len(t, aiErr.Excerpt, maxExcerptRune)
	assert.True(t, strings.HasPrefix(raw, aiErr.Excerpt))
}

func TestDraftFieldsDropsUnusableValues(t *testing.T) {
	d, err := Parse(`{
		"category": "Respiratory",
		"consumption_type": "Sublingual",
		"prescription_required": "yes please",
		"usage": "Inhale two puffs",
		"unrelated": 42
	}`)
	require.NoError(t, err)

	fields := d.Fields()
	require.NotNil(t, fields.Category)
	assert.Equal(t, "Respiratory", *fields.Category)
	require.NotNil(t, fields.Usage)
	assert.Nil(t, fields.ConsumptionType)
	assert.Nil(t, fields.PrescriptionRequired)
}
