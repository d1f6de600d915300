package routes

import (
	"github.com/gin-gonic/gin"

	"room-reservation/internal/audit"
	"room-reservation/internal/booking"
	"room-reservation/internal/identity"
	"room-reservation/internal/storage"
)

// API bundles the collaborators the HTTP handlers need. Handlers never
// reach for globals; everything comes in through here.
type API struct {
	Booking  *booking.Service
	Identity *identity.Service
	Store    storage.Provider
	Audit    audit.Emitter

	// Base URL for the application, used for check-in URLs in QR codes.
	BaseURL string
}

func securityHeaders(c *gin.Context) {
	c.Header("X-Content-Type-Options", "nosniff")
	c.Header("X-Frame-Options", "DENY")

	// Disable caching
	c.Header("Cache-Control", "no-store, no-cache, must-revalidate, proxy-revalidate")
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
	c.Next()
}

// RegisterRoutes wires the full JSON API under /api.
func RegisterRoutes(r *gin.Engine, api *API) {
	r.Use(securityHeaders)
	r.Use(ErrorHandler())

	root := r.Group("/api")

	root.GET("/healthz", api.healthz)
	root.POST("/auth/login", api.login)

	authed := root.Group("", AuthMiddleware(api.Identity))
	{
		reservations := authed.Group("/reservations")
		reservations.POST("", api.createReservation)
		reservations.GET("", api.listReservations)
		reservations.GET("/my", api.listMyReservations)
		reservations.GET("/for-user/:id", RequireSuperuser(), api.listReservationsForUser)
		reservations.PATCH("/:id", api.editReservation)
		reservations.DELETE("/:id", api.cancelReservation)

		rooms := authed.Group("/rooms")
		rooms.GET("", api.listRooms)
		rooms.GET("/:id", api.getRoom)
		rooms.GET("/:id/qr", api.roomCheckinQR)
		rooms.POST("", RequireSuperuser(), api.createRoom)
		rooms.PATCH("/:id", RequireSuperuser(), api.updateRoom)
		rooms.DELETE("/:id", RequireSuperuser(), api.deleteRoom)

		authed.GET("/activity", RequireSuperuser(), api.listActivity)
		authed.GET("/audit", RequireSuperuser(), api.listAudit)
	}

	// Ping intake is device-facing and unauthenticated; devices sit on the
	// room network and know only their room name.
	root.POST("/activity/ping", api.postPing)
}
