package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"chromebook_lending/db"
)

// BootstrapFirstAdmin drops a one-time invite for the configured bootstrap
// email so the very first admin can register a passkey on a fresh install.
func BootstrapFirstAdmin(ctx context.Context, cfg Config, repo *db.Repo) {
	if cfg.BootstrapEmail == "" {
		return
	}

	buf := make([]byte, 16)
	rand.Read(buf)
	token := hex.EncodeToString(buf)

	if _, err := repo.CreateInvite(ctx, cfg.BootstrapEmail, token, time.Now().Add(24*time.Hour), "bootstrap"); err != nil {
		log.Printf("bootstrap invite failed: %v", err)
		return
	}

	link := fmt.Sprintf("%s/login?inviteToken=%s", cfg.WebOrigin, token)
	log.Printf("[BOOTSTRAP] created an admin invite for %s", cfg.BootstrapEmail)
	log.Printf("[BOOTSTRAP] open this URL to register the first admin: %s", link)
}
