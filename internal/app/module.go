package app

import (
	"time"

	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/api/server"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/billing"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/ingest"
	notificationlog "github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/notification_log"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/statistics"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/app/service/sweep"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/platform/db"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/internal/platform/mail"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/config"
	"github.com/Mateusjonees/agenda-flow-bot-sub003/pkg/logger"

	"go.uber.org/fx"
)

const (
	DefaultStartTimeout = 15 * time.Second
	DefaultStopTimeout  = 10 * time.Second
)

var Module = fx.Options(
	logger.Module,
	config.Module,
	db.Module,
	mail.Module,
	server.Module,
	billing.Module,
	sweep.Module,
	ingest.Module,
	statistics.Module,
	notificationlog.Module,
)
