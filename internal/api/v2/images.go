package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/huam/biocurate/internal/errors"
)

func (c *Controller) initImageRoutes() {
	c.Group.GET("/images/:code", c.SearchImages)
}

// SearchImages handles GET /api/v2/images/:code. Per-row failures are part
// of a 200 answer; a cancelled search still returns the rows done so far.
func (c *Controller) SearchImages(ctx echo.Context) error {
	search, err := c.Service.SearchImages(ctx.Request().Context(), ctx.Param("code"))
	if err != nil {
		if errors.IsCategory(err, errors.CategoryCancellation) && len(search.Results) > 0 {
			return ctx.JSON(http.StatusPartialContent, search)
		}
		return c.HandleError(ctx, err, "Image search failed")
	}
	return ctx.JSON(http.StatusOK, search)
}
