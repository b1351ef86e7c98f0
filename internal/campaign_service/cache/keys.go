package cache

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	ProgressPrefix = "campaign_progress"

	DefaultProgressTTL = 5 * time.Second
)

func ProgressKey(campaignID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", ProgressPrefix, campaignID)
}
