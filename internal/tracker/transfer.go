package tracker

import (
	"context"

	"example.com/fittrack/internal/transfer"
)

// Export returns every persisted section in the backup envelope.
func (s *Service) Export(ctx context.Context) (transfer.Document, error) {
	return transfer.Export(ctx, s.store)
}

// Import merges a backup document into the store and re-arms reminders when
// the settings section changed them.
func (s *Service) Import(ctx context.Context, raw []byte) (transfer.Result, error) {
	res, err := transfer.Import(ctx, s.store, raw)
	if err != nil {
		return res, err
	}
	settings, err := s.store.Settings(ctx)
	if err != nil {
		return res, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		s.scheduleReminders(settings)
	}
	s.logger.Printf("imported backup version=%s sections=%v", res.Version, res.Imported)
	return res, nil
}
