package controllers

import (
	"errors"
	"net/http"
	"time"

	"chromebook_lending/app"
	"chromebook_lending/availability"
	"chromebook_lending/db"
	"chromebook_lending/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ReservationController struct{ *Srv }

func NewReservationController(s *Srv) *ReservationController {
	return &ReservationController{Srv: s}
}

type reservationReq struct {
	Date     string `json:"date" binding:"required"` // "2006-01-02"
	TimeSlot string `json:"time_slot" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	Subject  string `json:"subject"`
}

func (in reservationReq) toInput() (db.ReservationInput, error) {
	d, err := time.Parse("2006-01-02", in.Date)
	if err != nil {
		return db.ReservationInput{}, err
	}
	if !models.ValidTimeSlot(in.TimeSlot) {
		return db.ReservationInput{}, errors.New("unknown time slot")
	}
	return db.ReservationInput{
		Date:     d,
		TimeSlot: in.TimeSlot,
		Quantity: in.Quantity,
		Subject:  in.Subject,
	}, nil
}

func reservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, db.ErrSlotFull):
		c.JSON(http.StatusConflict, app.H{"error": "not enough devices left in this slot"})
	case errors.Is(err, db.ErrBadQuantity), errors.Is(err, db.ErrPastReservation):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrNotOwner):
		c.JSON(http.StatusForbidden, app.H{"error": err.Error()})
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "reservation not found"})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
	}
}

// POST /api/reservations
func (rc *ReservationController) Create(c *gin.Context) {
	var req reservationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	v, _ := c.Get("userID")
	ownerID, _ := v.(string)

	res, err := rc.Repo.CreateReservation(c.Request.Context(), ownerID, in, time.Now())
	if err != nil {
		reservationError(c, err)
		return
	}
	rc.logActivity(c, models.ActionReservationCreated, &res.ID, &res.Subject)
	c.JSON(http.StatusCreated, res)
}

// PUT /api/reservations/:id
func (rc *ReservationController) Update(c *gin.Context) {
	var req reservationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	v, _ := c.Get("userID")
	actorID, _ := v.(string)
	adminV, _ := c.Get("isAdmin")
	admin, _ := adminV.(bool)

	res, err := rc.Repo.UpdateReservation(c.Request.Context(), c.Param("id"), actorID, admin, in, time.Now())
	if err != nil {
		reservationError(c, err)
		return
	}
	rc.logActivity(c, models.ActionReservationUpdated, &res.ID, nil)
	c.JSON(http.StatusOK, res)
}

// DELETE /api/reservations/:id
func (rc *ReservationController) Delete(c *gin.Context) {
	v, _ := c.Get("userID")
	actorID, _ := v.(string)
	adminV, _ := c.Get("isAdmin")
	admin, _ := adminV.(bool)

	id := c.Param("id")
	if err := rc.Repo.DeleteReservation(c.Request.Context(), id, actorID, admin); err != nil {
		reservationError(c, err)
		return
	}
	rc.logActivity(c, models.ActionReservationDeleted, &id, nil)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

// GET /api/reservations?from=&to=&mine=1
func (rc *ReservationController) List(c *gin.Context) {
	var from, to *time.Time
	if t, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = &t
	}
	if t, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		to = &t
	}
	owner := ""
	if c.Query("mine") == "1" {
		v, _ := c.Get("userID")
		owner, _ = v.(string)
	}
	rs, err := rc.Repo.ListReservations(c.Request.Context(), from, to, owner)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"reservations": rs, "slots": models.TimeSlots})
}

// GET /api/reservations/availability?date=&slot=&exclude=
//
// Advisory only: computed from a snapshot that may be stale by the time the
// user submits. The create/update transactions recheck the bound.
func (rc *ReservationController) Availability(c *gin.Context) {
	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid date"})
		return
	}
	slot := c.Query("slot")
	if !models.ValidTimeSlot(slot) {
		c.JSON(http.StatusBadRequest, app.H{"error": "unknown time slot"})
		return
	}

	ctx := c.Request.Context()
	capacity, err := rc.Repo.LendableCount(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	reservations, err := rc.Repo.ReservationsOn(ctx, date)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	remaining := availability.ReservationCapacity(date, slot, reservations, capacity, c.Query("exclude"))
	c.JSON(http.StatusOK, app.H{
		"capacity":  capacity,
		"remaining": remaining,
	})
}
