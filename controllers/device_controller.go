package controllers

import (
	"errors"
	"net/http"

	"chromebook_lending/app"
	"chromebook_lending/db"
	"chromebook_lending/labels"
	"chromebook_lending/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type DeviceController struct{ *Srv }

func NewDeviceController(s *Srv) *DeviceController { return &DeviceController{Srv: s} }

// POST /api/devices — register a device, from a QR scan or manual entry.
func (dc *DeviceController) Create(c *gin.Context) {
	var in struct {
		DeviceID     string `json:"device_id" binding:"required"`
		Model        string `json:"model"`
		Manufacturer string `json:"manufacturer"`
		Serial       string `json:"serial"`
		PropertyTag  string `json:"property_tag"`
		Location     string `json:"location"`
		Condition    string `json:"condition"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	d := &models.Device{
		ID:           uuid.NewString(),
		DeviceID:     in.DeviceID,
		Model:        in.Model,
		Manufacturer: in.Manufacturer,
		Serial:       in.Serial,
		PropertyTag:  in.PropertyTag,
		Status:       models.DeviceAvailable,
		Location:     in.Location,
		Condition:    in.Condition,
	}
	if err := dc.Repo.CreateDevice(c.Request.Context(), d); err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, d)
}

// GET /api/devices?status=&q=
func (dc *DeviceController) List(c *gin.Context) {
	devices, err := dc.Repo.ListDevices(c.Request.Context(), c.Query("status"), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	lendable, err := dc.Repo.LendableCount(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, app.H{"devices": devices, "lendable": lendable})
}

// GET /api/devices/:id
func (dc *DeviceController) Get(c *gin.Context) {
	d, err := dc.Repo.FindDeviceByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, app.H{"error": "device not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// PUT /api/devices/:id — edit physical attributes.
func (dc *DeviceController) Update(c *gin.Context) {
	var in struct {
		Model        *string `json:"model"`
		Manufacturer *string `json:"manufacturer"`
		Serial       *string `json:"serial"`
		PropertyTag  *string `json:"property_tag"`
		Location     *string `json:"location"`
		Condition    *string `json:"condition"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	fields := map[string]any{}
	for col, v := range map[string]*string{
		"model": in.Model, "manufacturer": in.Manufacturer, "serial": in.Serial,
		"property_tag": in.PropertyTag, "location": in.Location, "condition": in.Condition,
	} {
		if v != nil {
			fields[col] = *v
		}
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, app.H{"error": "nothing to update"})
		return
	}
	d, err := dc.Repo.UpdateDevice(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/devices/:id/status — staff status transition.
func (dc *DeviceController) SetStatus(c *gin.Context) {
	var in struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	d, err := dc.Repo.SetDeviceStatus(c.Request.Context(), c.Param("id"), in.Status)
	if err != nil {
		if errors.Is(err, db.ErrInvalidStatus) {
			c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, d)
}

// POST /api/devices/labels — A4 PDF of QR labels for the given devices (or
// the whole fleet when no IDs are sent).
func (dc *DeviceController) Labels(c *gin.Context) {
	var in struct {
		DeviceIDs []string `json:"device_ids"`
		Cols      int      `json:"cols"`
		Rows      int      `json:"rows"`
	}
	_ = c.ShouldBindJSON(&in)

	ctx := c.Request.Context()
	var devices []models.Device
	if len(in.DeviceIDs) == 0 {
		all, err := dc.Repo.ListDevices(ctx, "", "")
		if err != nil {
			c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
			return
		}
		devices = all
	} else {
		for _, id := range in.DeviceIDs {
			d, err := dc.Repo.FindDeviceByID(ctx, id)
			if err != nil {
				c.JSON(http.StatusNotFound, app.H{"error": "device not found: " + id})
				return
			}
			devices = append(devices, *d)
		}
	}

	entries := make([]labels.Entry, 0, len(devices))
	for _, d := range devices {
		entries = append(entries, labels.Entry{Tag: d.DeviceID, Name: d.Model})
	}
	lay := labels.DefaultLayout()
	if in.Cols > 0 {
		lay.Cols = in.Cols
	}
	if in.Rows > 0 {
		lay.Rows = in.Rows
	}
	pdf, err := labels.Sheet(entries, lay)
	if err != nil {
		c.JSON(http.StatusInternalServerError, app.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="device-labels.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}
