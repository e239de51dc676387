package photostore

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/abctrack/abctrack/internal/platform/apperr"
	"github.com/abctrack/abctrack/internal/platform/auth"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/photos", h.Upload)
	api.GET("/photos/:id", h.Download)
}

// Upload handles POST /photos (multipart field "file").
func (h *Handler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return apperr.InputField("file", "multipart file is required")
	}
	if fh.Size > MaxPhotoSize {
		return apperr.InputField("file", "photo exceeds the 5 MB limit")
	}
	contentType := fh.Header.Get(echo.HeaderContentType)
	if !AllowedContentTypes[contentType] {
		return apperr.InputField("file", "only image/jpeg and image/png are accepted")
	}

	src, err := fh.Open()
	if err != nil {
		return apperr.Input("could not open uploaded file")
	}
	defer src.Close()

	ctx := c.Request().Context()
	meta, err := h.store.Save(ctx, Meta{
		FileName:    fh.Filename,
		ContentType: contentType,
		UploadedBy:  auth.UserIDFromContext(ctx),
	}, src)
	if err != nil {
		switch {
		case errors.Is(err, ErrTooLarge):
			return apperr.InputField("file", "photo exceeds the 5 MB limit")
		case errors.Is(err, ErrBadContentType):
			return apperr.InputField("file", "only image/jpeg and image/png are accepted")
		}
		return apperr.External("photo store", err)
	}
	return c.JSON(http.StatusCreated, meta)
}

// Download handles GET /photos/:id.
func (h *Handler) Download(c echo.Context) error {
	id := c.Param("id")
	body, meta, err := h.store.Open(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return apperr.NotFound("photo", id)
		}
		return apperr.External("photo store", err)
	}
	defer body.Close()
	return c.Stream(http.StatusOK, meta.ContentType, body)
}
