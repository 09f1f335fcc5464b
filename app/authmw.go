package app

import (
	"chromebook_lending/db"
	"chromebook_lending/session"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const AppSessionCookie = "app_session"

func AuthRequired(appSess *session.AppSessionStore, repo *db.Repo, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ck, err := c.Request.Cookie(AppSessionCookie)
		if err != nil || ck.Value == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		as, err := appSess.Get(c.Request.Context(), ck.Value)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid session"})
			return
		}

		// Confirm the user still exists; stash identity for handlers.
		u, err := repo.FindUserByID(c.Request.Context(), as.UserID)
		if err != nil {
			_ = appSess.Delete(c.Request.Context(), ck.Value)
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		c.Set("userID", as.UserID)
		c.Set("username", u.Username)
		c.Set("isAdmin", isAdmin(u.IsAdmin, u.Username, cfg))

		c.Next()
	}
}

func AdminOnly(cfg Config, repo *db.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("userID")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		uid, _ := v.(string)
		u, err := repo.FindUserByID(c.Request.Context(), uid)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "unauthorized"})
			return
		}
		if !isAdmin(u.IsAdmin, u.Username, cfg) {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "forbidden"})
			return
		}
		c.Next()
	}
}

// isAdmin honors both the stored flag and the env allowlist so the first
// admin can be promoted before any flag exists in the database.
func isAdmin(flag bool, username string, cfg Config) bool {
	if flag {
		return true
	}
	email := strings.ToLower(username)
	for _, admin := range cfg.AdminEmails {
		if email == admin {
			return true
		}
	}
	return false
}
