package component

import (
	"go.uber.org/zap"

	"github.com/yanizio/sermonario/internal/access"
	"github.com/yanizio/sermonario/internal/accesstoken"
	"github.com/yanizio/sermonario/internal/config"
	"github.com/yanizio/sermonario/internal/marketplace"
	"github.com/yanizio/sermonario/internal/message"
	"github.com/yanizio/sermonario/internal/sermon"
	"github.com/yanizio/sermonario/internal/session"
)

// Deps exposes process-wide resources to Components during Init.
// Notifier fields may be nil when the channel is not configured.
type Deps struct {
	Config      *config.Config
	Log         *zap.Logger
	Sessions    *session.Store
	Access      *access.Resolver
	Tokens      accesstoken.Store
	Sermons     *sermon.Service
	Marketplace *marketplace.Service
	Dispatcher  *message.Dispatcher
	Email       message.Notifier
	WhatsApp    message.Notifier
}

func (d Deps) logger() *zap.Logger {
	if d.Log == nil {
		return zap.NewNop()
	}
	return d.Log
}
