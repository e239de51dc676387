package geocode

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/abctrack/abctrack/internal/platform/apperr"
)

type Handler struct {
	client *Client
}

func NewHandler(client *Client) *Handler {
	return &Handler{client: client}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/geocode/reverse", h.Reverse)
}

func (h *Handler) Reverse(c echo.Context) error {
	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return apperr.InputField("lat", "must be a valid latitude")
	}
	lng, err := strconv.ParseFloat(c.QueryParam("lng"), 64)
	if err != nil {
		return apperr.InputField("lng", "must be a valid longitude")
	}
	if lat < -90 || lat > 90 {
		return apperr.InputField("lat", "must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return apperr.InputField("lng", "must be between -180 and 180")
	}

	address, err := h.client.Reverse(c.Request().Context(), lat, lng)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"address": address})
}
