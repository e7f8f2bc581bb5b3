package handlers

import (
	"github.com/gin-gonic/gin"

	"citasalud-server/internal/catalog"
	"citasalud-server/internal/utils"
)

// CatalogHandler serves the static reference data the booking UI selects from.
type CatalogHandler struct {
	Catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{Catalog: cat}
}

// GetLocations returns all clinic sites.
func (h *CatalogHandler) GetLocations(c *gin.Context) {
	utils.Success(c, "Locations fetched successfully", h.Catalog.Locations())
}

// GetSpecialties returns specialties, optionally filtered by locationId.
func (h *CatalogHandler) GetSpecialties(c *gin.Context) {
	utils.Success(c, "Specialties fetched successfully", h.Catalog.Specialties(c.Query("locationId")))
}

// GetProfessionals returns professionals, optionally filtered by specialtyId
// and locationId.
func (h *CatalogHandler) GetProfessionals(c *gin.Context) {
	utils.Success(c, "Professionals fetched successfully",
		h.Catalog.Professionals(c.Query("specialtyId"), c.Query("locationId")))
}
