package service

import (
	"context"
	"time"

	"tableorder/order-svc/internal/domain"
)

type StatsService struct {
	reader StatsReader
	now    func() time.Time
}

func NewStatsService(reader StatsReader) *StatsService {
	return &StatsService{reader: reader, now: time.Now}
}

// Today reads the UTC day's counters written by agg-svc.
func (s *StatsService) Today(ctx context.Context, restaurantID string) (*domain.DailyStats, error) {
	return s.reader.DailyStats(ctx, restaurantID, s.now().UTC().Format("2006-01-02"))
}
