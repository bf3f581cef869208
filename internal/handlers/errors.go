package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"pharma-catalog/internal/ai"
	"pharma-catalog/internal/models"
	"pharma-catalog/internal/repository"
)

// ErrorResponse es el cuerpo de todas las respuestas de error
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Hint    string `json:"hint,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Field   string `json:"field,omitempty"`
}

func respondError(c *gin.Context, status int, resp ErrorResponse) {
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string, err error) {
	resp := ErrorResponse{Error: msg}
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		resp.Error = ve.Message
		resp.Field = ve.Field
	} else if err != nil {
		resp.Details = err.Error()
	}
	respondError(c, http.StatusBadRequest, resp)
}

// storeError traduce errores del repositorio; el detalle del store se pasa tal cual
func storeError(c *gin.Context, err error, entity, action string) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, ErrorResponse{Error: entity + " not found"})
	case errors.Is(err, repository.ErrInvalidID):
		respondError(c, http.StatusBadRequest, ErrorResponse{Error: "invalid " + entity + " ID"})
	case errors.Is(err, repository.ErrDuplicateSlug):
		respondError(c, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to " + action,
			Details: err.Error(),
			Hint:    "another product took the same slug at the same time; retry the request",
		})
	default:
		respondError(c, http.StatusInternalServerError, ErrorResponse{
			Error:   "failed to " + action,
			Details: err.Error(),
			Hint:    "check that the database is reachable",
		})
	}
}

// aiStatus asigna el código HTTP según el tipo de fallo de IA
func aiStatus(kind ai.Kind) int {
	switch kind {
	case ai.KindValidation:
		return http.StatusBadRequest
	case ai.KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func aiError(c *gin.Context, err error) {
	var aiErr *ai.Error
	if !errors.As(err, &aiErr) {
		respondError(c, http.StatusInternalServerError, ErrorResponse{Error: "AI draft failed", Details: err.Error()})
		return
	}

	resp := ErrorResponse{Error: aiErr.Message, Kind: string(aiErr.Kind)}
	switch {
	case aiErr.Body != "":
		resp.Details = aiErr.Body
	case aiErr.Excerpt != "" && aiErr.Err != nil:
		resp.Details = aiErr.Err.Error() + ": " + aiErr.Excerpt
	case aiErr.Excerpt != "":
		resp.Details = aiErr.Excerpt
	case aiErr.Err != nil:
		resp.Details = aiErr.Err.Error()
	}
	respondError(c, aiStatus(aiErr.Kind), resp)
}
