package controllers

import (
	"errors"
	"net/http"
	"time"

	"chromebook_lending/app"
	"chromebook_lending/db"
	"chromebook_lending/models"

	"github.com/gin-gonic/gin"
)

type LoanController struct{ *Srv }

func NewLoanController(s *Srv) *LoanController { return &LoanController{Srv: s} }

// POST /api/loans — hand a device out.
func (lc *LoanController) Checkout(c *gin.Context) {
	var in struct {
		DeviceID           string     `json:"device_id" binding:"required"`
		BorrowerName       string     `json:"borrower_name" binding:"required"`
		BorrowerEmail      string     `json:"borrower_email"`
		BorrowerType       string     `json:"borrower_type"`
		ExpectedReturnDate *time.Time `json:"expected_return_date"`
		Note               string     `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	switch in.BorrowerType {
	case "":
		in.BorrowerType = models.BorrowerStudent
	case models.BorrowerStudent, models.BorrowerTeacher, models.BorrowerStaff:
	default:
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid borrower_type"})
		return
	}

	loan, err := lc.Repo.CheckoutDevice(c.Request.Context(), db.CheckoutInput{
		DeviceID:           in.DeviceID,
		BorrowerName:       in.BorrowerName,
		BorrowerEmail:      in.BorrowerEmail,
		BorrowerType:       in.BorrowerType,
		ExpectedReturnDate: in.ExpectedReturnDate,
		Note:               in.Note,
	})
	if err != nil {
		if errors.Is(err, db.ErrDeviceUnavailable) {
			c.JSON(http.StatusConflict, app.H{"error": "device not available"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	lc.logActivity(c, models.ActionCheckout, &loan.ID, &in.BorrowerName)
	c.JSON(http.StatusCreated, loan)
}

// POST /api/loans/:id/return
func (lc *LoanController) Return(c *gin.Context) {
	loanID := c.Param("id")
	v, ok := c.Get("userID")
	if !ok {
		c.JSON(http.StatusUnauthorized, app.H{"error": "unauthorized"})
		return
	}
	userID, _ := v.(string)

	loan, err := lc.Repo.ReturnLoan(c.Request.Context(), loanID, userID)
	if err != nil {
		if errors.Is(err, db.ErrLoanClosed) {
			// Idempotent: report the closed loan rather than failing.
			c.JSON(http.StatusOK, loan)
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	lc.logActivity(c, models.ActionReturn, &loan.ID, nil)
	c.JSON(http.StatusOK, loan)
}

// GET /api/loans?status=&deviceId=&borrowerType=&from=&to=
func (lc *LoanController) List(c *gin.Context) {
	f := db.LoanFilter{
		DeviceID:     c.Query("deviceId"),
		BorrowerType: c.Query("borrowerType"),
		Status:       c.Query("status"),
	}
	if t, err := time.Parse(time.RFC3339, c.Query("from")); err == nil {
		f.From = &t
	}
	if t, err := time.Parse(time.RFC3339, c.Query("to")); err == nil {
		f.To = &t
	}
	rows, err := lc.Repo.ListLoansWithDevice(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"loans": rows})
}
