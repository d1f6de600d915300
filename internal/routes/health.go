package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (api *API) healthz(c *gin.Context) {
	version, err := api.Store.GetSchemaVersion(c.Request.Context())
	if err != nil {
		AbortWithError(c, NewHTTPError(http.StatusServiceUnavailable, err, "Database unavailable"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"schema_version": version,
	})
}
