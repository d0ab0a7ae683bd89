package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/huam/biocurate/internal/catalog"
)

func (c *Controller) initTaxonRoutes() {
	c.Group.GET("/taxa/families", c.ListFamilies)
	c.Group.GET("/taxa/family/:name", c.GetFamilyReport)
	c.Group.GET("/taxa/genus/:name", c.GetGenusReport)
	// Scientific names contain spaces, so the name travels in the query
	c.Group.GET("/taxa/species", c.GetSpeciesReport)
}

// GetFamilyReport handles GET /api/v2/taxa/family/:name
func (c *Controller) GetFamilyReport(ctx echo.Context) error {
	return c.taxonReport(ctx, ctx.Param("name"), c.Service.FamilyReport)
}

// GetGenusReport handles GET /api/v2/taxa/genus/:name
func (c *Controller) GetGenusReport(ctx echo.Context) error {
	return c.taxonReport(ctx, ctx.Param("name"), c.Service.GenusReport)
}

// GetSpeciesReport handles GET /api/v2/taxa/species?name=
func (c *Controller) GetSpeciesReport(ctx echo.Context) error {
	return c.taxonReport(ctx, ctx.QueryParam("name"), c.Service.SpeciesReport)
}

func (c *Controller) taxonReport(ctx echo.Context, name string, report func(string) (catalog.TaxonReport, error)) error {
	result, err := report(name)
	if err != nil {
		return c.HandleError(ctx, err, "Taxon search failed")
	}
	return ctx.JSON(http.StatusOK, result)
}

// ListFamilies handles GET /api/v2/taxa/families
func (c *Controller) ListFamilies(ctx echo.Context) error {
	census, err := c.Service.ListFamilies()
	if err != nil {
		return c.HandleError(ctx, err, "Family census failed")
	}
	return ctx.JSON(http.StatusOK, census)
}
