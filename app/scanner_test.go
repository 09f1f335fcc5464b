package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func scannerTestRouter(cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/audits/:id/items", ScannerAuth(cfg, nil, nil), func(c *gin.Context) {
		uid, _ := c.Get("userID")
		aid, _ := c.Get("scannerAuditID")
		c.JSON(http.StatusOK, H{"user_id": uid, "audit_id": aid})
	})
	return r
}

func scannerRequest(r *gin.Engine, auditID, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/audits/"+auditID+"/items", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestScannerAuthToken(t *testing.T) {
	cfg := Config{ScannerSecret: "test-secret", ScannerTTL: time.Hour}
	r := scannerTestRouter(cfg)

	token, err := IssueScannerToken(cfg, "audit-1", "user-1", time.Now())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	if w := scannerRequest(r, "audit-1", token); w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d, want 200", w.Code)
	}
	// Token scoped to one audit must not open another.
	if w := scannerRequest(r, "audit-2", token); w.Code != http.StatusForbidden {
		t.Errorf("wrong audit: status = %d, want 403", w.Code)
	}
	if w := scannerRequest(r, "audit-1", "not-a-jwt"); w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}

	other := Config{ScannerSecret: "other-secret", ScannerTTL: time.Hour}
	forged, _ := IssueScannerToken(other, "audit-1", "user-1", time.Now())
	if w := scannerRequest(r, "audit-1", forged); w.Code != http.StatusUnauthorized {
		t.Errorf("wrong secret: status = %d, want 401", w.Code)
	}
}

func TestScannerAuthExpiredToken(t *testing.T) {
	cfg := Config{ScannerSecret: "test-secret", ScannerTTL: time.Hour}
	r := scannerTestRouter(cfg)

	token, err := IssueScannerToken(cfg, "audit-1", "user-1", time.Now().Add(-2*time.Hour))
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if w := scannerRequest(r, "audit-1", token); w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status = %d, want 401", w.Code)
	}
}

// Without a bearer token the request falls through to the staff session
// path; with no cookie either, that path rejects it before touching the
// session store.
func TestScannerAuthSessionFallback(t *testing.T) {
	cfg := Config{ScannerSecret: "test-secret", ScannerTTL: time.Hour}
	r := scannerTestRouter(cfg)

	if w := scannerRequest(r, "audit-1", ""); w.Code != http.StatusUnauthorized {
		t.Errorf("no credentials: status = %d, want 401", w.Code)
	}
}
