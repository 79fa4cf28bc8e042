package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/h0rv/flowcanvas/internal/domain"
	"github.com/h0rv/flowcanvas/internal/kv"
)

func perfKey(caller domain.Caller) string {
	return "perf:" + accountOrUnknown(caller)
}

// recordPerf overwrites the caller's last perf sample. Failures are only logged.
func (s *Service) recordPerf(ctx context.Context, caller domain.Caller, sample domain.PerfSample) {
	sample.TS = domain.Timestamp(s.now())
	raw, err := json.Marshal(sample)
	if err == nil {
		err = s.kv.Set(ctx, perfKey(caller), raw)
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("perf sample not recorded")
	}
}

// GetPerfSnapshot returns the caller's last perf sample, or nil before the first query.
func (s *Service) GetPerfSnapshot(ctx context.Context, caller domain.Caller) (*domain.PerfSample, error) {
	raw, err := s.kv.Get(ctx, perfKey(caller))
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading perf sample: %w", err)
	}
	var sample domain.PerfSample
	if err := json.Unmarshal(raw, &sample); err != nil {
		return nil, fmt.Errorf("decoding perf sample: %w", err)
	}
	return &sample, nil
}
