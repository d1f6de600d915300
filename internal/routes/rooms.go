package routes

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	"room-reservation/internal/storage"
)

const qrImageSize = 512

// paramInt64 parses a numeric path parameter, aborting the request with a
// 400 when it is malformed.
func paramInt64(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid "+name+" parameter"))
		return 0, false
	}
	return value, true
}

// paramInt64Query does the same for a required query parameter.
func paramInt64Query(c *gin.Context, name string) (int64, bool) {
	value, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid "+name+" parameter"))
		return 0, false
	}
	return value, true
}

type roomJSON struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

func toRoomJSON(r *storage.Room) roomJSON {
	return roomJSON{ID: r.ID, Name: r.Name, Description: r.Description}
}

type roomRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
}

func (api *API) listRooms(c *gin.Context) {
	rooms, err := api.Store.ListRooms(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	out := make([]roomJSON, 0, len(rooms))
	for i := range rooms {
		out = append(out, toRoomJSON(&rooms[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (api *API) getRoom(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	room, err := api.Store.GetRoom(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toRoomJSON(room))
}

func (api *API) createRoom(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid room payload"))
		return
	}

	// Duplicate names are rejected before insert so the caller gets a clear
	// message instead of a constraint violation.
	if _, err := api.Store.GetRoomByName(c.Request.Context(), req.Name); err == nil {
		AbortWithError(c, NewHTTPError(http.StatusUnprocessableEntity, nil,
			fmt.Sprintf("A room named %q already exists", req.Name), "ROOM_NAME_TAKEN"))
		return
	}

	room := &storage.Room{Name: req.Name, Description: req.Description}
	if err := api.Store.CreateRoom(c.Request.Context(), room); err != nil {
		AbortWithError(c, err)
		return
	}

	api.Audit.Emit(c.Request.Context(), fmt.Sprintf("Room created: %q (id %d)", room.Name, room.ID), &requester.ID)
	c.JSON(http.StatusCreated, toRoomJSON(room))
}

func (api *API) updateRoom(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	var req roomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid room payload"))
		return
	}

	room, err := api.Store.GetRoom(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	room.Name = req.Name
	room.Description = req.Description
	if err := api.Store.UpdateRoom(c.Request.Context(), room); err != nil {
		AbortWithError(c, err)
		return
	}

	api.Audit.Emit(c.Request.Context(), fmt.Sprintf("Room updated: %q (id %d)", room.Name, room.ID), &requester.ID)
	c.JSON(http.StatusOK, toRoomJSON(room))
}

func (api *API) deleteRoom(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}

	room, err := api.Store.GetRoom(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if err := api.Store.DeleteRoom(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	api.Audit.Emit(c.Request.Context(), fmt.Sprintf("Room deleted: %q (id %d)", room.Name, room.ID), &requester.ID)
	c.Status(http.StatusNoContent)
}

// roomCheckinQR renders a QR code for the door poster. Scanning it opens
// the room's check-in URL, which devices and users use to report presence.
func (api *API) roomCheckinQR(c *gin.Context) {
	id, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	room, err := api.Store.GetRoom(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	checkinURL := fmt.Sprintf("%scheckin?room=%s", api.BaseURL, room.Name)
	qr, err := qrcode.Encode(checkinURL, qrcode.Medium, qrImageSize)
	if err != nil {
		AbortWithError(c, NewHTTPError(http.StatusInternalServerError, err, "Failed to generate QR code"))
		return
	}

	c.Data(http.StatusOK, "image/png", qr)
}
