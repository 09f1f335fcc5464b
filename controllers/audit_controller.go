package controllers

import (
	"errors"
	"net/http"
	"time"

	"chromebook_lending/app"
	"chromebook_lending/db"
	"chromebook_lending/models"
	"chromebook_lending/reconcile"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuditController struct {
	*Srv
	Hub *AuditHub
}

func NewAuditController(s *Srv, hub *AuditHub) *AuditController {
	return &AuditController{Srv: s, Hub: hub}
}

// POST /api/audits
func (ac *AuditController) Start(c *gin.Context) {
	var in struct {
		Name string `json:"name" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	v, _ := c.Get("userID")
	uid, _ := v.(string)

	audit, err := ac.Repo.StartAudit(c.Request.Context(), in.Name, uid)
	if err != nil {
		if errors.Is(err, db.ErrAuditActiveExists) {
			c.JSON(http.StatusConflict, app.H{"error": "an audit is already active"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	ac.logActivity(c, models.ActionAuditStarted, &audit.ID, &audit.Name)
	c.JSON(http.StatusCreated, audit)
}

// GET /api/audits
func (ac *AuditController) List(c *gin.Context) {
	audits, err := ac.Repo.ListAudits(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"audits": audits})
}

// GET /api/audits/active
func (ac *AuditController) Active(c *gin.Context) {
	audit, err := ac.Repo.ActiveAudit(c.Request.Context())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusOK, app.H{"audit": nil})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"audit": audit})
}

// POST /api/audits/:id/items — count one device. Reached with either a
// staff session or a scanner bearer token.
func (ac *AuditController) Count(c *gin.Context) {
	var in struct {
		DeviceID       string `json:"device_id"`
		DeviceTag      string `json:"device_tag"` // QR scans send the tag
		ScanMethod     string `json:"scan_method" binding:"required"`
		FoundLocation  string `json:"location_found"`
		FoundCondition string `json:"condition_found"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	if in.ScanMethod != models.ScanMethodQR && in.ScanMethod != models.ScanMethodManual {
		c.JSON(http.StatusBadRequest, app.H{"error": "invalid scan_method"})
		return
	}
	ctx := c.Request.Context()

	deviceID := in.DeviceID
	if deviceID == "" && in.DeviceTag != "" {
		d, err := ac.Repo.FindDeviceByTag(ctx, in.DeviceTag)
		if err != nil {
			c.JSON(http.StatusNotFound, app.H{"error": "unknown device tag"})
			return
		}
		deviceID = d.ID
	}
	if deviceID == "" {
		c.JSON(http.StatusBadRequest, app.H{"error": "device_id or device_tag required"})
		return
	}

	v, _ := c.Get("userID")
	uid, _ := v.(string)

	item, err := ac.Repo.CountDevice(ctx, c.Param("id"), db.CountInput{
		DeviceID:       deviceID,
		ScanMethod:     in.ScanMethod,
		FoundLocation:  in.FoundLocation,
		FoundCondition: in.FoundCondition,
		CountedBy:      uid,
	})
	if err != nil {
		switch {
		case errors.Is(err, db.ErrDuplicateCount):
			c.JSON(http.StatusConflict, app.H{"error": "device already counted"})
		case errors.Is(err, db.ErrAuditNotActive):
			c.JSON(http.StatusConflict, app.H{"error": "audit is not active"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, app.H{"error": "audit or device not found"})
		default:
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		}
		return
	}

	if audit, err := ac.Repo.FindAuditByID(ctx, item.AuditID); err == nil {
		ac.Hub.BroadcastProgress(audit.ID, audit.TotalCounted, audit.TotalExpected)
	}
	c.JSON(http.StatusCreated, item)
}

// POST /api/audits/:id/complete and /cancel
func (ac *AuditController) Complete(c *gin.Context) { ac.close(c, models.AuditCompleted) }
func (ac *AuditController) Cancel(c *gin.Context)   { ac.close(c, models.AuditCancelled) }

func (ac *AuditController) close(c *gin.Context, status string) {
	audit, err := ac.Repo.CloseAudit(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		if errors.Is(err, db.ErrAuditNotActive) {
			c.JSON(http.StatusConflict, app.H{"error": "audit is not active"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	ac.logActivity(c, models.ActionAuditClosed, &audit.ID, &audit.Status)
	c.JSON(http.StatusOK, audit)
}

// GET /api/audits/:id/report
func (ac *AuditController) Report(c *gin.Context) {
	ctx := c.Request.Context()
	audit, err := ac.Repo.FindAuditByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "audit not found"})
		return
	}
	items, err := ac.Repo.AuditItems(ctx, audit.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	devices, err := ac.Repo.ListDevices(ctx, "", "")
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}

	report := reconcile.BuildReport(*audit, items, devices, audit.TotalExpected, time.Now().UTC())
	c.JSON(http.StatusOK, report)
}

// POST /api/audits/:id/scanner-token — staff-issued bearer token for
// handheld counting devices.
func (ac *AuditController) ScannerToken(c *gin.Context) {
	audit, err := ac.Repo.FindAuditByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, app.H{"error": "audit not found"})
		return
	}
	if audit.Status != models.AuditActive {
		c.JSON(http.StatusConflict, app.H{"error": "audit is not active"})
		return
	}
	v, _ := c.Get("userID")
	uid, _ := v.(string)
	token, err := app.IssueScannerToken(ac.Cfg, audit.ID, uid, time.Now())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"token": token, "expires_in": int(ac.Cfg.ScannerTTL.Seconds())})
}
