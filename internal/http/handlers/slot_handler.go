package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/j01232026-hub/pretty/internal/domain"
)

// BusySlotsResponse lists the busy intervals of one salon day.
type BusySlotsResponse struct {
	Date    string            `json:"date" example:"2025-06-01"`
	Stylist string            `json:"stylist,omitempty" example:"Amy"`
	Busy    []domain.Interval `json:"busy"`
}

// BusySlots godoc
// @ID          busySlots
// @Summary     Busy intervals for a day
// @Description Merges calendar busy time with stored bookings. With stylist, bookings for
// @Description other named stylists are left out. Intervals may overlap.
// @Tags        Slots
// @Produce     json
// @Param       store_id  path   string  true  "Store ID"
// @Param       date      query  string  true  "Day (YYYY-MM-DD)"
// @Param       stylist   query  string  false "Stylist filter"
// @Success     200  {object}  handlers.BusySlotsResponse
// @Failure     400  {object}  handlers.ErrorResponse
// @Failure     503  {object}  handlers.ErrorResponse
// @Router      /stores/{store_id}/busy-slots [get]
func (h *Handlers) BusySlots(c *gin.Context) {
	date := c.Query("date")
	stylist := c.Query("stylist")
	busy, err := h.slots.BusySlots(c.Request.Context(), c.Param("store_id"), date, stylist)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, BusySlotsResponse{Date: date, Stylist: stylist, Busy: busy})
}
