package services

import (
	"go.uber.org/zap"

	"github.com/jakechorley/church-ops/pkg/cache"
	"github.com/jakechorley/church-ops/pkg/core/notify"
)

// Notifier bundles the side-effect channels that follow a state transition
type Notifier struct {
	Dispatcher *notify.Dispatcher
	Email      notify.EmailSender // nil disables email
	Push       notify.PushSender
	Calendar   notify.CalendarSyncer
	Cache      cache.Invalidator

	// BaseURL is the public app URL used to build email response links
	BaseURL string
}

// withDefaults returns a copy with no-op implementations for unset channels
func (n Notifier) withDefaults() Notifier {
	if n.Dispatcher == nil {
		n.Dispatcher = notify.NewDispatcher(zap.NewNop())
	}
	if n.Push == nil {
		n.Push = notify.NopPush{}
	}
	if n.Calendar == nil {
		n.Calendar = notify.NopCalendar{}
	}
	if n.Cache == nil {
		n.Cache = cache.Nop{}
	}
	return n
}
