package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// getFoods returns the food catalog sorted by name.
// GET /api/foods. Loads the catalog on first use if the startup preload
// hasn't finished or was disabled.
func (h *Handler) getFoods(c *gin.Context) {
	foods := h.engine.foods
	if !foods.catalogLoaded() {
		if err := foods.loadCatalog(c.Request.Context()); err != nil {
			apiError(c, http.StatusInternalServerError, "failed to fetch foods")
			return
		}
	}

	c.JSON(http.StatusOK, foods.foods())
}
