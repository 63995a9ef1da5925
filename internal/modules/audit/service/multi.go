package service

import (
	"context"

	"go.uber.org/multierr"

	"pump_screener/internal/models"
)

type appender interface {
	Append(ctx context.Context, rec models.AuditRecord) error
}

// Multi пишет запись во все журналы и собирает ошибки.
type Multi []appender

func NewMulti(logs ...appender) Multi {
	out := make(Multi, 0, len(logs))
	for _, l := range logs {
		if l != nil {
			out = append(out, l)
		}
	}
	return out
}

func (m Multi) Append(ctx context.Context, rec models.AuditRecord) error {
	var err error
	for _, l := range m {
		err = multierr.Append(err, l.Append(ctx, rec))
	}
	return err
}
