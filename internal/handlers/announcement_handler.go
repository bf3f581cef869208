package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"pharma-catalog/internal/logger"
	"pharma-catalog/internal/models"
	"pharma-catalog/internal/repository"
)

type AnnouncementHandler struct {
	store repository.AnnouncementStore
	log   *logger.Logger
	now   func() time.Time
}

func NewAnnouncementHandler(store repository.AnnouncementStore, log *logger.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{store: store, log: log, now: func() time.Time { return time.Now().UTC() }}
}

// ListPublic devuelve solo los anuncios activos y vigentes
func (h *AnnouncementHandler) ListPublic(c *gin.Context) {
	list, err := h.store.ListVisible(c.Request.Context(), h.now())
	if err != nil {
		storeError(c, err, "announcement", "list announcements")
		return
	}
	c.JSON(http.StatusOK, list)
}

// ListAll devuelve todos los anuncios para el panel admin
func (h *AnnouncementHandler) ListAll(c *gin.Context) {
	list, err := h.store.List(c.Request.Context())
	if err != nil {
		storeError(c, err, "announcement", "list announcements")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *AnnouncementHandler) Create(c *gin.Context) {
	var in models.AnnouncementInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "invalid JSON body", err)
		return
	}
	if err := in.Validate(); err != nil {
		badRequest(c, "invalid announcement", err)
		return
	}

	a := in.Announcement(h.now())
	if err := h.store.Create(c.Request.Context(), a); err != nil {
		storeError(c, err, "announcement", "create announcement")
		return
	}
	h.log.Info("announcement created", "id", a.ID.Hex(), "type", a.Type)
	c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Update(c *gin.Context) {
	var patch models.AnnouncementPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, "invalid JSON body", err)
		return
	}
	if err := patch.Validate(); err != nil {
		badRequest(c, "invalid announcement", err)
		return
	}

	a, err := h.store.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		storeError(c, err, "announcement", "update announcement")
		return
	}
	c.JSON(http.StatusOK, a)
}

func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("id")); err != nil {
		storeError(c, err, "announcement", "delete announcement")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "announcement deleted"})
}
