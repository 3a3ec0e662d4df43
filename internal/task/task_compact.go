package task

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// runCompact 清理内存基座中已过期的锁与在线状态条目
func (s *Scheduler) runCompact() {
	done := s.app.TrackOperation()
	defer done()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.app.Compactor.Compact(ctx)
	if err != nil {
		s.logger.Warn("Ephemeral store compaction failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("Ephemeral store compacted", zap.Int("removed", removed))
	}
}
