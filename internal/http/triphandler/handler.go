package triphandler

import (
	"errors"
	"net/http"
	"ridehailgo/internal/services/trip"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc trip.ITripService
}

func New(svc trip.ITripService) *Handler { return &Handler{svc: svc} }

func (h *Handler) Register(r gin.IRoutes) {
	r.GET("/trip", h.list)
	r.GET("/trip/:nk", h.detail)
}

// @Summary		List trips
// @Description	Retrieves a paginated list of trips, optionally filtered by status.
// @Tags			Trips
// @Param			status	query		string	false	"Status filter"	Enums(REQUESTED,STARTED,IN_PROGRESS,COMPLETED)
// @Param			limit	query		int		false	"Max results (0-100)"	minimum(0)	maximum(100)	default(10)
// @Param			offset	query		int		false	"Offset for pagination"	minimum(0)	default(0)
// @Success		200		{array}		trip.TripDTO
// @Failure		400		{object}	ErrorResponse
// @Router			/trip [get]
func (h *Handler) list(c *gin.Context) {
	var q ListTripsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}
	out, err := h.svc.ListTrips(c.Request.Context(), q.Status, q.Limit, q.Offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, out)
}

// @Summary		Get trip details
// @Description	Returns one trip looked up by its natural key.
// @Tags			Trips
// @Param			nk	path		string	true	"Trip natural key"
// @Success		200	{object}	trip.TripDTO
// @Failure		404	{object}	ErrorResponse
// @Router			/trip/{nk} [get]
func (h *Handler) detail(c *gin.Context) {
	dto, err := h.svc.GetTrip(c.Request.Context(), c.Param("nk"))
	if errors.Is(err, trip.ErrTripNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, dto)
}
