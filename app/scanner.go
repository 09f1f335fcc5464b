package app

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"chromebook_lending/db"
	"chromebook_lending/session"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// Handheld scanners counting devices during an audit don't carry session
// cookies; staff issue them a short-lived bearer token scoped to one audit
// instead.

type ScannerClaims struct {
	AuditID string `json:"audit_id"`
	jwt.RegisteredClaims
}

func IssueScannerToken(cfg Config, auditID, issuedBy string, now time.Time) (string, error) {
	claims := ScannerClaims{
		AuditID: auditID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   issuedBy,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.ScannerTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.ScannerSecret))
}

func parseScannerToken(cfg Config, raw string) (*ScannerClaims, error) {
	token, err := jwt.ParseWithClaims(raw, &ScannerClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.ScannerSecret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*ScannerClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid scanner token")
	}
	return claims, nil
}

// ScannerAuth authenticates the counting endpoint. A bearer token, when
// present, must be a scanner token matching the audit in the URL; requests
// without one fall back to the regular staff session cookie.
func ScannerAuth(cfg Config, appSess *session.AppSessionStore, repo *db.Repo) gin.HandlerFunc {
	sessionAuth := AuthRequired(appSess, repo, cfg)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			sessionAuth(c)
			return
		}
		fields := strings.Fields(header)
		if len(fields) != 2 || !strings.EqualFold(fields[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "malformed authorization header"})
			return
		}
		claims, err := parseScannerToken(cfg, fields[1])
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, H{"error": "invalid or expired token"})
			return
		}
		if id := c.Param("id"); id != "" && id != claims.AuditID {
			c.AbortWithStatusJSON(http.StatusForbidden, H{"error": "token not valid for this audit"})
			return
		}
		c.Set("userID", claims.Subject)
		c.Set("scannerAuditID", claims.AuditID)
		c.Next()
	}
}
