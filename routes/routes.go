package routes

import (
	"chromebook_lending/app"
	"chromebook_lending/controllers"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	appSess := s.AppSessions()
	uc := controllers.GetUserController(s.Repo, appSess, a.Config)
	inviteCtl := controllers.GetInviteController(s)
	deviceCtl := controllers.NewDeviceController(s)
	loanCtl := controllers.NewLoanController(s)
	resCtl := controllers.NewReservationController(s)
	hub := controllers.NewAuditHub()
	auditCtl := controllers.NewAuditController(s, hub)
	dashCtl := controllers.NewDashboardController(s)
	actCtl := controllers.NewActivityController(s)

	authMW := app.AuthRequired(appSess, s.Repo, a.Config)
	adminMW := app.AdminOnly(a.Config, s.Repo)
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)
	scannerMW := app.ScannerAuth(a.Config, appSess, s.Repo)

	// ------------------------------
	// WebAuthn (public + protected)
	// ------------------------------
	wa := r.Group("/webauthn")
	{
		wa.POST("/register/begin", s.BeginRegistration)
		wa.POST("/register/finish", s.FinishRegistration)

		wa.POST("/login/begin", s.BeginLogin)
		wa.POST("/login/finish", s.FinishLogin)
	}

	waAuth := wa.Group("", authMW, seenMW)
	{
		waAuth.GET("/whoami", s.WhoAmI)

		waAuth.POST("/logout", func(c *app.Ctx) {
			if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
				_ = appSess.Delete(c.Request.Context(), ck.Value)
			}
			http.SetCookie(c.Writer, &http.Cookie{
				Name:     app.AppSessionCookie,
				Value:    "",
				Path:     "/",
				MaxAge:   -1,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
			c.JSON(http.StatusOK, app.H{"ok": true})
		})
	}

	creds := r.Group("/api/credentials", authMW, seenMW)
	{
		creds.POST("/add/begin", s.BeginAddCredential)
		creds.POST("/add/finish", s.FinishAddCredential)
	}

	// ------------------------------
	// Admin: invites and user management
	// ------------------------------
	admin := r.Group("/admin", authMW, adminMW)
	{
		admin.POST("/invites", inviteCtl.CreateInvite)
	}

	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers)
		users.GET("/:id", uc.GetUser)
		users.DELETE("/:id", uc.DeleteUser)
	}

	// ------------------------------
	// Devices
	// ------------------------------
	devicesAdmin := r.Group("/api/devices", authMW, adminMW)
	{
		devicesAdmin.POST("", deviceCtl.Create)
		devicesAdmin.PUT("/:id", deviceCtl.Update)
		devicesAdmin.POST("/:id/status", deviceCtl.SetStatus)
		devicesAdmin.POST("/labels", deviceCtl.Labels)
	}

	devices := r.Group("/api/devices", authMW, seenMW)
	{
		devices.GET("", deviceCtl.List)
		devices.GET("/:id", deviceCtl.Get)
	}

	// ------------------------------
	// Loans
	// ------------------------------
	loans := r.Group("/api/loans", authMW, seenMW)
	{
		loans.POST("", loanCtl.Checkout)
		loans.POST("/:id/return", loanCtl.Return)
		loans.GET("", loanCtl.List)
	}

	// ------------------------------
	// Reservations
	// ------------------------------
	reservations := r.Group("/api/reservations", authMW, seenMW)
	{
		reservations.GET("", resCtl.List)
		reservations.GET("/availability", resCtl.Availability)
		reservations.POST("", resCtl.Create)
		reservations.PUT("/:id", resCtl.Update)
		reservations.DELETE("/:id", resCtl.Delete)
	}

	// ------------------------------
	// Audits
	// ------------------------------
	audits := r.Group("/api/audits", authMW, seenMW)
	{
		audits.POST("", auditCtl.Start)
		audits.GET("", auditCtl.List)
		audits.GET("/active", auditCtl.Active)
		audits.GET("/:id/report", auditCtl.Report)
		audits.POST("/:id/complete", auditCtl.Complete)
		audits.POST("/:id/cancel", auditCtl.Cancel)
		audits.POST("/:id/scanner-token", auditCtl.ScannerToken)
	}

	// Counting endpoint: reachable by handheld scanners with a bearer
	// token, no session cookie needed.
	r.POST("/api/audits/:id/items", scannerMW, auditCtl.Count)

	// Live progress for dashboards watching the active audit.
	r.GET("/api/audits/live", authMW, hub.Serve)

	// ------------------------------
	// Dashboard
	// ------------------------------
	dash := r.Group("/api/dashboard", authMW, seenMW)
	{
		dash.GET("/occupancy", dashCtl.Occupancy)
		dash.GET("/peak", dashCtl.Peak)
		dash.GET("/usage", dashCtl.Usage)
	}

	r.GET("/api/activity", authMW, seenMW, actCtl.Recent)
}
