package routes

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation/internal/storage"
)

// pingRequest is what room devices report. The device knows its room by
// name and, when someone is logged in, the user's email. The timestamp is
// the device's own clock; we keep our receive time separately.
type pingRequest struct {
	Room       string    `json:"room" binding:"required"`
	UserEmail  string    `json:"user_email"`
	ObservedAt time.Time `json:"observed_at"`
}

func (api *API) postPing(c *gin.Context) {
	var req pingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid ping payload"))
		return
	}

	ctx := c.Request.Context()

	room, err := api.Store.GetRoomByName(ctx, req.Room)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	var userID *int64
	if req.UserEmail != "" {
		user, err := api.Store.GetUserByEmail(ctx, req.UserEmail)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		userID = &user.ID
	}

	now := time.Now().UTC()
	observed := req.ObservedAt
	if observed.IsZero() {
		observed = now
	}

	ping := &storage.ActivityPing{
		UserID:     userID,
		RoomID:     room.ID,
		ObservedAt: observed.UTC(),
		ReceivedAt: now,
	}
	if err := api.Store.RecordPing(ctx, ping); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"success": true})
}

type pingJSON struct {
	ID         int64     `json:"id"`
	UserID     *int64    `json:"user_id,omitempty"`
	RoomID     int64     `json:"room_id"`
	ObservedAt time.Time `json:"observed_at"`
	ReceivedAt time.Time `json:"received_at"`
}

func (api *API) listActivity(c *gin.Context) {
	roomID, ok := paramInt64Query(c, "room_id")
	if !ok {
		return
	}

	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid hours parameter"))
			return
		}
		hours = parsed
	}

	since := time.Now().UTC().Add(-time.Duration(hours) * time.Hour)
	pings, err := api.Store.ListPingsForRoom(c.Request.Context(), roomID, since)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	out := make([]pingJSON, 0, len(pings))
	for _, p := range pings {
		out = append(out, pingJSON{
			ID:         p.ID,
			UserID:     p.UserID,
			RoomID:     p.RoomID,
			ObservedAt: p.ObservedAt,
			ReceivedAt: p.ReceivedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
