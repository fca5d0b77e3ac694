// internal/delivery/telegram/app/bot/factory_handlers.go
package bot

import (
	"stars-subscription-bot/internal/core/domain/plan"
	buy_command "stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/commands/buy"
	help_command "stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/commands/help"
	pay_command "stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/commands/pay"
	status_command "stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/commands/status"
	unknown_command "stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/commands/unknown"
	"stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/router"
	start_command "stars-subscription-bot/internal/delivery/telegram/app/bot/handlers/start"
	"stars-subscription-bot/pkg/logger"
)

// RegisterAllHandlers создает роутер со всеми командами бота
func RegisterAllHandlers(deps Dependencies) router.Router {
	r := router.NewRouter()

	r.RegisterHandler(start_command.NewHandler(deps.Issuer))
	r.RegisterHandler(help_command.NewHandler())
	r.RegisterHandler(pay_command.NewHandler(deps.Issuer))
	for _, p := range plan.All() {
		r.RegisterHandler(buy_command.NewHandler(p.Code, deps.Issuer))
	}
	if deps.Subscriptions != nil {
		r.RegisterHandler(status_command.NewHandler(deps.Subscriptions))
	}
	r.SetFallback(unknown_command.NewHandler())

	logger.Info("✅ Зарегистрировано команд бота: %d", len(r.GetCommands()))
	return r
}
