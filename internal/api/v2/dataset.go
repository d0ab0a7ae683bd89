package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/specimen"
)

// Upload kinds accepted by POST /dataset/upload
const (
	UploadSpecimens = "specimens"
	UploadImages    = "images"
)

// DatasetInfo describes the current specimen snapshot
type DatasetInfo struct {
	Loaded   bool      `json:"loaded"`
	Origin   string    `json:"origin,omitempty"`
	Name     string    `json:"name,omitempty"`
	Records  int       `json:"records"`
	Columns  []string  `json:"columns,omitempty"`
	LoadedAt time.Time `json:"loaded_at,omitzero"`
}

// ImageUploadInfo describes an uploaded image worksheet
type ImageUploadInfo struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
}

func (c *Controller) initDatasetRoutes() {
	c.Group.GET("/dataset", c.GetDataset)
	c.Group.POST("/dataset/reload", c.ReloadDataset)
	c.Group.POST("/dataset/upload", c.UploadDataset)
}

func datasetInfo(ds *specimen.Dataset) DatasetInfo {
	src := ds.Source()
	return DatasetInfo{
		Loaded:   true,
		Origin:   string(src.Origin),
		Name:     src.Name,
		Records:  ds.Len(),
		Columns:  ds.Columns(),
		LoadedAt: src.LoadedAt,
	}
}

// GetDataset handles GET /api/v2/dataset
func (c *Controller) GetDataset(ctx echo.Context) error {
	ds, err := c.Service.Dataset()
	if err != nil {
		return ctx.JSON(http.StatusOK, DatasetInfo{})
	}
	return ctx.JSON(http.StatusOK, datasetInfo(ds))
}

// ReloadDataset handles POST /api/v2/dataset/reload. With force=true the
// worksheet cache is bypassed.
func (c *Controller) ReloadDataset(ctx echo.Context) error {
	force := false
	if raw := ctx.QueryParam("force"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			return c.handleErrorCode(ctx, err, "force must be a boolean", http.StatusBadRequest)
		}
		force = parsed
	}

	ds, err := c.Service.LoadRemote(ctx.Request().Context(), force)
	if err != nil {
		return c.HandleError(ctx, err, "Failed to load the database")
	}
	return ctx.JSON(http.StatusOK, datasetInfo(ds))
}

// UploadDataset handles POST /api/v2/dataset/upload. The multipart field
// "file" carries the worksheet; "kind" selects specimens (default) or images.
func (c *Controller) UploadDataset(ctx echo.Context) error {
	kind := ctx.FormValue("kind")
	if kind == "" {
		kind = UploadSpecimens
	}
	if kind != UploadSpecimens && kind != UploadImages {
		return c.handleErrorCode(ctx, nil, "kind must be specimens or images", http.StatusBadRequest)
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		return c.handleErrorCode(ctx, err, "A CSV file is required in the file field", http.StatusBadRequest)
	}
	if fh.Size > c.maxUploadBytes {
		err := errors.Newf("upload of %d bytes exceeds the %d byte limit", fh.Size, c.maxUploadBytes).
			Component("api").
			Category(errors.CategoryLimit).
			Build()
		return c.HandleError(ctx, err, "Uploaded file is too large")
	}

	f, err := fh.Open()
	if err != nil {
		return c.handleErrorCode(ctx, err, "Failed to read the uploaded file", http.StatusBadRequest)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			c.logger.Warn("failed to close upload", logger.Error(cerr))
		}
	}()

	if kind == UploadImages {
		ds, err := c.Service.LoadImageCSV(f, fh.Filename)
		if err != nil {
			return c.HandleError(ctx, err, "Image worksheet rejected")
		}
		return ctx.JSON(http.StatusOK, ImageUploadInfo{Name: fh.Filename, Records: ds.Len()})
	}

	ds, err := c.Service.LoadCSV(f, fh.Filename)
	if err != nil {
		return c.HandleError(ctx, err, "Dataset rejected")
	}
	return ctx.JSON(http.StatusOK, datasetInfo(ds))
}
