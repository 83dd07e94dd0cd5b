package sync

import (
	"context"
	"fmt"

	"holdfast/internal/config"
)

// NewTargetFromConfig creates a Target implementation based on the sync
// target config type.
func NewTargetFromConfig(ctx context.Context, cfg config.SyncTargetConfig) (Target, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryTarget(cfg.Name), nil
	case "s3":
		return NewS3Target(ctx, cfg)
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem target requires fs_root to be set")
		}
		return NewFilesystemTarget(cfg.Name, cfg.FSRoot)
	default:
		return nil, fmt.Errorf("unknown sync target type: %s", cfg.Type)
	}
}
