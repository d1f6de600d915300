package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const defaultAuditLimit = 200

type auditEventJSON struct {
	ID          int64     `json:"id"`
	Time        time.Time `json:"time"`
	Description string    `json:"description"`
	UserID      *int64    `json:"user_id,omitempty"`
}

func (api *API) listAudit(c *gin.Context) {
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid limit parameter"))
			return
		}
		limit = parsed
	}

	events, err := api.Store.ListAuditEvents(c.Request.Context(), limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]auditEventJSON, 0, len(events))
	for _, e := range events {
		out = append(out, auditEventJSON{
			ID:          e.ID,
			Time:        e.Time,
			Description: e.Description,
			UserID:      e.UserID,
		})
	}
	c.JSON(http.StatusOK, out)
}
