package controllers

import (
	"net/http"
	"time"

	"chromebook_lending/app"
	"chromebook_lending/availability"

	"github.com/gin-gonic/gin"
)

type DashboardController struct{ *Srv }

func NewDashboardController(s *Srv) *DashboardController {
	return &DashboardController{Srv: s}
}

// GET /api/dashboard/occupancy — how many devices are out right now.
func (dc *DashboardController) Occupancy(c *gin.Context) {
	ctx := c.Request.Context()
	loans, err := dc.Repo.AllLoans(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	capacity, err := dc.Repo.LendableCount(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	now := time.Now()
	occ := availability.OccupancyAt(now, now, loans, capacity)
	c.JSON(http.StatusOK, app.H{"occupancy": occ, "capacity": capacity})
}

// GET /api/dashboard/peak?start=2006-01-02&end=2006-01-02
func (dc *DashboardController) Peak(c *gin.Context) {
	start, err1 := time.Parse("2006-01-02", c.Query("start"))
	end, err2 := time.Parse("2006-01-02", c.Query("end"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "start and end dates required"})
		return
	}
	// extend end to the last instant of its day
	end = end.Add(24*time.Hour - time.Second)

	ctx := c.Request.Context()
	loans, err := dc.Repo.AllLoans(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	capacity, err := dc.Repo.LendableCount(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	peak := availability.PeakOccupancy(&start, &end,
		dc.Cfg.WorkStartHour, dc.Cfg.WorkEndHour, loans, capacity, time.Now())
	c.JSON(http.StatusOK, peak)
}

// GET /api/dashboard/usage?start=&end= — chart series.
func (dc *DashboardController) Usage(c *gin.Context) {
	start, err1 := time.Parse("2006-01-02", c.Query("start"))
	end, err2 := time.Parse("2006-01-02", c.Query("end"))
	if err1 != nil || err2 != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "start and end dates required"})
		return
	}
	end = end.Add(24*time.Hour - time.Second)

	ctx := c.Request.Context()
	loans, err := dc.Repo.AllLoans(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	capacity, err := dc.Repo.LendableCount(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	buckets := availability.Bucketize(loans, start, end,
		dc.Cfg.WorkStartHour, dc.Cfg.WorkEndHour, capacity, time.Now())
	c.JSON(http.StatusOK, app.H{"buckets": buckets})
}
