// README: Catalog item CRUD handlers.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"goshop/internal/modules/catalog"
)

type CatalogHandler struct {
	catalog *catalog.Service
}

func NewCatalogHandler(svc *catalog.Service) *CatalogHandler {
	return &CatalogHandler{catalog: svc}
}

// List handles GET /items with optional nombre/categoria/precio_min filters.
func (h *CatalogHandler) List(c *gin.Context) {
	var f catalog.Filter
	f.Name = strings.TrimSpace(c.Query("nombre"))
	f.Category = strings.TrimSpace(c.Query("categoria"))
	if raw := c.Query("precio_min"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			writeError(c, http.StatusBadRequest, "invalid precio_min")
			return
		}
		f.MinPrice = v
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	items, err := h.catalog.List(ctx, f)
	if err != nil {
		writeCatalogError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"items": items, "count": len(items)})
}

// Add handles POST /items.
func (h *CatalogHandler) Add(c *gin.Context) {
	var item catalog.Item
	if err := c.ShouldBindJSON(&item); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.catalog.Add(ctx, item); err != nil {
		writeCatalogError(c, err)
		return
	}
	writeJSON(c, http.StatusCreated, map[string]any{"nombre": item.Nombre, "id": catalog.ItemID(item.Nombre)})
}

// Update handles PUT /items/:nombre with a partial property body.
func (h *CatalogHandler) Update(c *gin.Context) {
	nombre := strings.TrimSpace(c.Param("nombre"))
	if nombre == "" {
		writeError(c, http.StatusBadRequest, "missing nombre")
		return
	}

	var props map[string]interface{}
	if err := c.ShouldBindJSON(&props); err != nil {
		writeError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if len(props) == 0 {
		writeError(c, http.StatusBadRequest, "empty update")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.catalog.Update(ctx, nombre, props); err != nil {
		writeCatalogError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"nombre": nombre, "updated": true})
}

// Delete handles DELETE /items/:nombre.
func (h *CatalogHandler) Delete(c *gin.Context) {
	nombre := strings.TrimSpace(c.Param("nombre"))
	if nombre == "" {
		writeError(c, http.StatusBadRequest, "missing nombre")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()

	if err := h.catalog.Delete(ctx, nombre); err != nil {
		writeCatalogError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, map[string]any{"nombre": nombre, "deleted": true})
}
