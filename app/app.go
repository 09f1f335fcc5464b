package app

import (
	"chromebook_lending/db"
	"chromebook_lending/session"
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Aliases so handlers stay short.
type Ctx = gin.Context
type H = gin.H

// App aggregates the shared dependencies.
type App struct {
	Router *gin.Engine
	DB     *gorm.DB
	RDB    *redis.Client
	WA     *webauthn.WebAuthn
	Config Config

	appSess *session.AppSessionStore
}

// Config is read from environment variables.
type Config struct {
	RedisAddr      string
	RedisPwd       string
	WebOrigin      string
	RPID           string
	RPOrigins      []string
	SessionTTL     time.Duration
	AdminEmails    []string
	BootstrapEmail string

	// Dashboard sampling window, local school hours.
	WorkStartHour int
	WorkEndHour   int

	// Signing secret for scanner bearer tokens.
	ScannerSecret string
	ScannerTTL    time.Duration
}

func (a *App) AppSessions() *session.AppSessionStore { return a.appSess }

func MustNew() *App {
	cfg := loadConfig()

	dbConn := db.ConnectDB()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPwd, DB: 0})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("redis: %v", err)
	}

	wa, err := webauthn.New(&webauthn.Config{
		RPDisplayName: "Chromebook Lending Passkeys",
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		log.Fatalf("webauthn: %v", err)
	}

	appTTL := 24 * time.Hour

	r := gin.Default()
	useCORS(r, cfg.WebOrigin)
	a := &App{
		Router: r, DB: dbConn, RDB: rdb, WA: wa, Config: cfg,
		appSess: session.NewAppSessionStore(rdb, appTTL),
	}
	return a
}

func (a *App) Close() { _ = a.RDB.Close() }

func loadConfig() Config {
	get := func(k, def string) string {
		v := os.Getenv(k)
		if v == "" {
			return def
		}
		return v
	}
	getInt := func(k string, def int) int {
		if n, err := strconv.Atoi(os.Getenv(k)); err == nil {
			return n
		}
		return def
	}
	ttlSec := get("SESSION_TTL_SECONDS", "600")
	ttl := 10 * time.Minute
	if d, err := time.ParseDuration(ttlSec + "s"); err == nil {
		ttl = d
	}
	originsCSV := get("RP_ORIGINS", "http://localhost:5173")
	var origins []string
	for _, o := range strings.Split(originsCSV, ",") {
		if s := strings.TrimSpace(o); s != "" {
			origins = append(origins, s)
		}
	}
	adminsCSV := os.Getenv("ADMIN_EMAILS")
	var admins []string
	for _, s := range strings.Split(adminsCSV, ",") {
		if t := strings.TrimSpace(s); t != "" {
			admins = append(admins, strings.ToLower(t))
		}
	}
	return Config{
		RedisAddr:      get("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:       os.Getenv("REDIS_PASSWORD"),
		WebOrigin:      get("WEB_ORIGIN", "http://localhost:5173"),
		RPID:           get("RP_ID", "localhost"),
		RPOrigins:      origins,
		SessionTTL:     ttl,
		AdminEmails:    admins,
		BootstrapEmail: os.Getenv("BOOTSTRAP_ADMIN_EMAIL"),
		WorkStartHour:  getInt("WORK_START_HOUR", 7),
		WorkEndHour:    getInt("WORK_END_HOUR", 18),
		ScannerSecret:  get("SCANNER_TOKEN_SECRET", "dev-scanner-secret"),
		ScannerTTL:     time.Duration(getInt("SCANNER_TOKEN_TTL_MINUTES", 240)) * time.Minute,
	}
}

// NewUserID produces a fresh UUID as bytes, used as the WebAuthn userHandle.
func NewUserID() []byte { id := uuid.New(); return id[:] }
