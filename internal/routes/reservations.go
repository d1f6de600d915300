package routes

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"room-reservation/internal/booking"
	"room-reservation/internal/storage"
)

type reservationJSON struct {
	ID                string    `json:"id"`
	RoomID            int64     `json:"room_id"`
	UserID            int64     `json:"user_id"`
	Start             time.Time `json:"start"`
	End               time.Time `json:"end"`
	ConfirmedActivity bool      `json:"confirmed_activity"`
}

func toReservationJSON(r *storage.Reservation) reservationJSON {
	return reservationJSON{
		ID:                r.ID,
		RoomID:            r.RoomID,
		UserID:            r.UserID,
		Start:             r.Start,
		End:               r.End,
		ConfirmedActivity: r.ConfirmedActivity,
	}
}

func toReservationList(rs []storage.Reservation) []reservationJSON {
	out := make([]reservationJSON, 0, len(rs))
	for i := range rs {
		out = append(out, toReservationJSON(&rs[i]))
	}
	return out
}

type createReservationRequest struct {
	RoomID int64     `json:"room_id" binding:"required"`
	UserID *int64    `json:"user_id"`
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
}

func (api *API) createReservation(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req createReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid reservation payload"))
		return
	}

	reservation, err := api.Booking.Create(c.Request.Context(), booking.CreateRequest{
		RoomID: req.RoomID,
		UserID: req.UserID,
		Start:  req.Start,
		End:    req.End,
	}, requester)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toReservationJSON(reservation))
}

func (api *API) listReservations(c *gin.Context) {
	currentOnly := c.Query("current") == "true"

	reservations, err := api.Booking.List(c.Request.Context(), currentOnly)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationList(reservations))
}

func (api *API) listMyReservations(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	history := c.Query("history") == "true"

	reservations, err := api.Booking.ListForUser(c.Request.Context(), requester.ID, history, requester)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationList(reservations))
}

func (api *API) listReservationsForUser(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}
	userID, ok := paramInt64(c, "id")
	if !ok {
		return
	}
	history := c.Query("history") == "true"

	reservations, err := api.Booking.ListForUser(c.Request.Context(), userID, history, requester)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationList(reservations))
}

type editReservationRequest struct {
	Start  time.Time `json:"start" binding:"required"`
	End    time.Time `json:"end" binding:"required"`
	UserID *int64    `json:"user_id"`
}

func (api *API) editReservation(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	var req editReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid reservation payload"))
		return
	}

	reservation, err := api.Booking.Edit(c.Request.Context(), c.Param("id"), booking.EditRequest{
		Start:  req.Start,
		End:    req.End,
		UserID: req.UserID,
	}, requester)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationJSON(reservation))
}

func (api *API) cancelReservation(c *gin.Context) {
	requester, err := GetUser(c)
	if err != nil {
		AbortWithError(c, ErrUnauthorized)
		return
	}

	reservation, err := api.Booking.Cancel(c.Request.Context(), c.Param("id"), requester)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReservationJSON(reservation))
}
