package db

import (
	"chromebook_lending/models"
	"context"
	"fmt"
)

func (r *Repo) LogActivity(ctx context.Context, action, actorID, actorUsername string, targetID, detail *string) (*models.ActivityLog, error) {
	entry := &models.ActivityLog{
		Action:        action,
		ActorID:       actorID,
		ActorUsername: actorUsername,
		TargetID:      targetID,
		Detail:        detail,
	}
	if err := r.DB.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, fmt.Errorf("insert activity log: %w", err)
	}
	return entry, nil
}

func (r *Repo) RecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var entries []models.ActivityLog
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
