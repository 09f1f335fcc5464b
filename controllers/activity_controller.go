package controllers

import (
	"net/http"
	"strconv"

	"chromebook_lending/app"

	"github.com/gin-gonic/gin"
)

type ActivityController struct{ *Srv }

func NewActivityController(s *Srv) *ActivityController { return &ActivityController{Srv: s} }

// GET /api/activity?limit=50 — recent actions for the dashboard feed.
func (ac *ActivityController) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := ac.Repo.RecentActivity(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"activity": entries})
}
