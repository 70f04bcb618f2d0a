package server

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"startloft-api/internal/models"
)

const (
	msgBadJSON      = "Некорректный JSON"
	msgSyncRunning  = "Синхронизация уже выполняется"
	syncRunDeadline = 30 * time.Minute
)

func (h *handler) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Start Loft API", "version": "1.0.0"})
}

func (h *handler) listTournaments(c *gin.Context) {
	ts, err := h.deps.Tournaments.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ts)
}

func (h *handler) getTournament(c *gin.Context) {
	t, err := h.deps.Tournaments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (h *handler) createTournament(c *gin.Context) {
	var d models.TournamentDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorBody{Detail: msgBadJSON})
		return
	}
	created, err := h.deps.Tournaments.Create(c.Request.Context(), d)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *handler) listParticipants(c *gin.Context) {
	ps, err := h.deps.Tournaments.Participants(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ps)
}

func (h *handler) exportRegistrations(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	if err := h.deps.Tournaments.ExportCSV(c.Request.Context(), id, &buf); err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="registrations_`+id+`.csv"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (h *handler) submitRegistration(c *gin.Context) {
	var req models.RegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, errorBody{Detail: msgBadJSON})
		return
	}
	meta := models.RegistrationMeta{
		IP:        c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
	resp, err := h.deps.Registrations.Submit(c.Request.Context(), req, meta)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *handler) clubSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Club)
}

// syncSheets starts a replay in the background; only one runs at a time.
func (h *handler) syncSheets(c *gin.Context) {
	if !h.syncing.CompareAndSwap(false, true) {
		c.AbortWithStatusJSON(http.StatusConflict, errorBody{Detail: msgSyncRunning})
		return
	}
	requestID := c.GetString(requestIDKey)

	go func() {
		defer h.syncing.Store(false)
		defer func() {
			if r := recover(); r != nil {
				log.Printf("server: sheets sync %s panic: %v", requestID, r)
			}
		}()

		ctx, cancel := context.WithTimeout(h.deps.Background, syncRunDeadline)
		defer cancel()
		res, err := h.deps.Sync(ctx)
		if err != nil {
			log.Printf("server: sheets sync %s stopped: %v", requestID, err)
		}
		log.Printf("server: sheets sync %s done: %s", requestID, summary(res.Total, res.Processed, res.Succeeded, res.Failed))
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "started", "request_id": requestID})
}

func summary(total int64, processed, ok, failed int) string {
	return fmt.Sprintf("total=%d processed=%d ok=%d failed=%d", total, processed, ok, failed)
}
