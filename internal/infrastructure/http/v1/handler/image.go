package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geoforge/dyntile/internal/geoimage"
	"github.com/geoforge/dyntile/pkg/logger"
)

func (h *Handler) IngestImage(c *gin.Context) {
	log, _ := c.Get("logger")
	l := log.(logger.Logger)

	if ct := c.ContentType(); ct != "image/tiff" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Content-Type must be image/tiff",
		})
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, h.maxUploadBytes+1))
	if err != nil {
		l.Error("failed to read upload body", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}
	if int64(len(body)) > h.maxUploadBytes {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": "upload exceeds the configured size limit",
		})
		return
	}
	if len(body) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "request body must be a valid TIFF",
		})
		return
	}

	tasks, _, err := h.tileUseCase.IngestImage(c.Request.Context(), body)
	if err != nil {
		if errors.Is(err, geoimage.ErrDecode) {
			l.Warn("rejected upload", "error", err)
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
			})
			return
		}
		l.Error("failed to ingest image", "error", err)
		h.RespondWithInternalServerError(c)
		return
	}

	h.RespondWithJSON(c, http.StatusOK, "image ingested", gin.H{"chunks": tasks})
}
