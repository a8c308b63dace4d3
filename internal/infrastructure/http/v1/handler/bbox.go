package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoforge/dyntile/internal/infrastructure/http/v1/dto"
	"github.com/geoforge/dyntile/pkg/logger"
)

func (h *Handler) UpdatedTiles(c *gin.Context) {
	log, _ := c.Get("logger")
	l := log.(logger.Logger)

	var req dto.UpdatedTilesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request parameters",
		})
		return
	}
	if err := h.validate.Struct(req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid request parameters",
		})
		return
	}

	bbox, err := req.ParseBBox()
	if err != nil {
		l.Warn("invalid bbox", "bbox", req.BBox, "error", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	tiles, err := h.tileUseCase.UpdatedTiles(c.Request.Context(), bbox, req.Layer, ClientID(c))
	if err != nil {
		l.Error("failed to list updated tiles", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	l.Info("updated tiles listed", "count", len(tiles), "layer", req.Layer)

	h.RespondWithJSON(c, http.StatusOK, "updated tiles", tiles)
}
