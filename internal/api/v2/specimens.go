package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) initSpecimenRoutes() {
	c.Group.GET("/specimens/code/:code", c.GetSpecimenByCode)
	c.Group.GET("/specimens/fieldnumber/:number", c.GetSpecimensByFieldNumber)
}

// GetSpecimenByCode handles GET /api/v2/specimens/code/:code. A code that
// matches nothing answers 404 with an ErrorResponse.
func (c *Controller) GetSpecimenByCode(ctx echo.Context) error {
	lookup, err := c.Service.SearchCode(ctx.Param("code"))
	if err != nil {
		return c.HandleError(ctx, err, "Code search failed")
	}
	return ctx.JSON(http.StatusOK, lookup)
}

// GetSpecimensByFieldNumber handles GET /api/v2/specimens/fieldnumber/:number
func (c *Controller) GetSpecimensByFieldNumber(ctx echo.Context) error {
	result, err := c.Service.SearchFieldNumber(ctx.Param("number"))
	if err != nil {
		return c.HandleError(ctx, err, "Field number search failed")
	}
	return ctx.JSON(http.StatusOK, result)
}
