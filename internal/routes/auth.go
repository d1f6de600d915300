package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token    string `json:"token"`
	UserID   int64  `json:"user_id"`
	FullName string `json:"full_name"`
}

func (api *API) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, NewHTTPError(http.StatusBadRequest, err, "Invalid login payload"))
		return
	}

	token, user, err := api.Identity.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:    token,
		UserID:   user.ID,
		FullName: user.FullName,
	})
}
