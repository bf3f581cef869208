package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-catalog/internal/ai"
	"pharma-catalog/internal/models"
)

// Drafter genera el borrador de textos de un producto
type Drafter interface {
	Draft(ctx context.Context, name, composition string) (ai.Draft, error)
}

type AIHandler struct {
	drafter Drafter
}

func NewAIHandler(drafter Drafter) *AIHandler {
	return &AIHandler{drafter: drafter}
}

type analyzeRequest struct {
	Name        string `json:"name"`
	Composition string `json:"composition"`
}

type generateRequest struct {
	analyzeRequest
	Product map[string]any `json:"product"`
}

// AnalyzeComposition devuelve el borrador con sus claves al nivel superior
func (h *AIHandler) AnalyzeComposition(c *gin.Context) {
	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", err)
		return
	}

	draft, err := h.drafter.Draft(c.Request.Context(), req.Name, req.Composition)
	if err != nil {
		aiError(c, err)
		return
	}

	resp := gin.H{}
	for k, v := range draft {
		resp[k] = v
	}
	resp["success"] = true
	c.JSON(http.StatusOK, resp)
}

// GenerateProduct mezcla el borrador con el formulario actual: solo los
// valores no vacíos del borrador reemplazan a los del formulario.
func (h *AIHandler) GenerateProduct(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid JSON body", err)
		return
	}

	form := models.ParseProductPatchLenient(req.Product)
	name, composition := req.Name, req.Composition
	if name == "" && form.Name != nil {
		name = *form.Name
	}
	if composition == "" && form.Composition != nil {
		composition = *form.Composition
	}

	draft, err := h.drafter.Draft(c.Request.Context(), name, composition)
	if err != nil {
		aiError(c, err)
		return
	}

	merged := form.MergeNonEmpty(models.ProductPatch{Name: &name, Composition: &composition}).
		MergeNonEmpty(draft.Fields())
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"draft":   draft,
		"product": merged.Form(),
	})
}
