package calendar

import (
	"context"

	"go.uber.org/zap"
)

// CompositeSource implements Source with fallback strategy
// Primary: RemoteSource (HTTP)
// Fallback: FileSource (local file)
type CompositeSource struct {
	primary  Source
	fallback Source
	logger   *zap.Logger
}

// NewCompositeSource creates a new CompositeSource
func NewCompositeSource(primary, fallback Source, logger *zap.Logger) *CompositeSource {
	return &CompositeSource{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

// CustomHolidays asks the primary source and falls back on error
func (cs *CompositeSource) CustomHolidays(ctx context.Context) ([]CustomHolidaySpec, error) {
	specs, err := cs.primary.CustomHolidays(ctx)
	if err == nil {
		return specs, nil
	}

	cs.logger.Warn("Primary holiday source failed, falling back",
		zap.Error(err))

	return cs.fallback.CustomHolidays(ctx)
}
