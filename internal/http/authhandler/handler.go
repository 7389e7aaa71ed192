package authhandler

import (
	"net/http"
	"ridehailgo/internal/http/middleware"
	"ridehailgo/internal/services/identity"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc identity.IIdentityService
}

func New(svc identity.IIdentityService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes, authed gin.IRoutes) {
	r.POST("/sign_up", h.signUp)
	r.POST("/log_in", h.logIn)
	authed.POST("/log_out", h.logOut)
	authed.GET("/users", h.listUsers)
}

func (h *Handler) signUp(c *gin.Context) {
	var body SignUpBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	if body.Password1 != body.Password2 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "passwords do not match"})
		return
	}

	user, err := h.svc.SignUp(c.Request.Context(), body.Username, body.Email, body.Password1, body.Group)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusCreated, PrivateUserResponse{UserDTO: *user})
}

func (h *Handler) logIn(c *gin.Context) {
	var body LogInBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	user, token, err := h.svc.LogIn(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, PrivateUserResponse{UserDTO: *user, AuthToken: token})
}

func (h *Handler) logOut(c *gin.Context) {
	if err := h.svc.LogOut(c.Request.Context(), middleware.TokenFrom(c)); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listUsers(c *gin.Context) {
	var exclude string
	if user := middleware.UserFrom(c); user != nil {
		exclude = user.Username
	}
	users, err := h.svc.ListUsers(c.Request.Context(), exclude)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}
