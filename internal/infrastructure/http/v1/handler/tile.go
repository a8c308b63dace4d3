package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoforge/dyntile/internal/infrastructure/http/v1/dto"
	"github.com/geoforge/dyntile/pkg/logger"
)

func (h *Handler) FetchTile(c *gin.Context) {
	log, _ := c.Get("logger")
	l := log.(logger.Logger)

	var req dto.FetchTileRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		l.Warn("malformed fetch parameters", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request parameters",
		})
		return
	}

	if err := h.validate.Struct(req); err != nil {
		l.Warn("invalid fetch parameters", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request parameters",
		})
		return
	}

	clientID := ClientID(c)

	data, err := h.tileUseCase.FetchTile(
		c.Request.Context(),
		*req.TileCol, *req.TileRow, *req.Zoom,
		req.Layer, clientID,
	)
	if err != nil {
		l.Error("failed to fetch tile", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	c.Data(http.StatusOK, "image/png", data)
}
