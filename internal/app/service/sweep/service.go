package sweep

import (
	"context"
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/platform/mail"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Sweeper is the sweep surface consumed by HTTP handlers and the runner.
type Sweeper interface {
	SweepExpired(ctx context.Context, now time.Time) ([]*ExpiredResult, error)
	SweepReminders(ctx context.Context, now time.Time) (*ReminderSummary, error)
}

type Service struct {
	cfg    *config.Config
	db     *gorm.DB
	log    *zap.SugaredLogger
	mailer mail.Mailer
}

var _ Sweeper = (*Service)(nil)

func NewService(cfg *config.Config, db *gorm.DB, log *zap.SugaredLogger, mailer mail.Mailer) *Service {
	return &Service{cfg: cfg, db: db, log: log, mailer: mailer}
}
