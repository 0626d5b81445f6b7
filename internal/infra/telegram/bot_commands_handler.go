// internal/infra/telegram/bot_commands_handler.go
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"studio_alert_bot/internal/app"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// AlertBoard is what the chat commands need from the alert service.
type AlertBoard interface {
	Current() app.Snapshot
	Refresh(ctx context.Context) (app.Snapshot, error)
}

// Access decides who may read the board and who may run manager commands.
type Access interface {
	IsManager(telegramID int64) bool
	CanViewAlerts(ctx context.Context, chatID int64, telegramID int64) (bool, error)
}

const (
	refreshButtonUnique = "alerts_refresh"

	msgNoAccess      = "ليس لديك صلاحية لعرض التنبيهات. الرجاء التواصل مع المدير."
	msgManagersOnly  = "ليس لديك صلاحية لتنفيذ هذا الأمر."
	msgAccessFailed  = "حدث خطأ أثناء التحقق من صلاحياتك. الرجاء المحاولة لاحقًا."
	msgRefreshButton = "🔄 تحديث"
	msgRefreshed     = "تم التحديث"
)

func htmlOptions(markup *telebot.ReplyMarkup) *telebot.SendOptions {
	return &telebot.SendOptions{ParseMode: telebot.ModeHTML, DisableWebPagePreview: true, ReplyMarkup: markup}
}

// refreshMarkup builds the inline refresh button shown to managers under the board.
func refreshMarkup() (*telebot.ReplyMarkup, telebot.Btn) {
	markup := &telebot.ReplyMarkup{}
	btn := markup.Data(msgRefreshButton, refreshButtonUnique)
	markup.Inline(markup.Row(btn))
	return markup, btn
}

func RegisterBotCommands(
	ctx context.Context,
	b *telebot.Bot,
	board AlertBoard,
	access Access,
	renderer *BoardRenderer,
	baseLogger *logrus.Entry,
) {
	cmdLogger := baseLogger.WithField("handler_group", "alerts")
	markup, refreshBtn := refreshMarkup()

	// boardOptions attaches the refresh button for managers only.
	boardOptions := func(senderID int64) *telebot.SendOptions {
		if access.IsManager(senderID) {
			return htmlOptions(markup)
		}
		return htmlOptions(nil)
	}

	b.Handle("/start", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := cmdLogger.WithFields(logrus.Fields{"command": "/start", "sender_id": senderID})
		logCtx.Info("Processing /start command")

		if access.IsManager(senderID) {
			return c.Send(fmt.Sprintf("مرحبًا %s! أنا بوت تنبيهات الاستوديو. استخدم /alerts لعرض التنبيهات و /help لقائمة الأوامر.", c.Sender().FirstName))
		}
		allowed, err := access.CanViewAlerts(ctx, c.Chat().ID, senderID)
		if err != nil {
			logCtx.WithError(err).Error("Error checking access for /start command")
			return c.Send(msgAccessFailed)
		}
		if allowed {
			return c.Send(fmt.Sprintf("مرحبًا %s! سأرسل لك تنبيهات طلبات الطباعة وجلسات التصوير. استخدم /alerts لعرضها الآن.", c.Sender().FirstName))
		}
		return c.Send(fmt.Sprintf("مرحبًا! لاستلام التنبيهات اطلب من المدير إضافتك. معرّف المحادثة: %d", c.Chat().ID))
	})

	b.Handle("/help", func(c telebot.Context) error {
		senderID := c.Sender().ID
		cmdLogger.WithFields(logrus.Fields{"command": "/help", "sender_id": senderID}).Info("Processing /help command")

		var help strings.Builder
		help.WriteString("الأوامر المتاحة:\n\n")
		help.WriteString("/alerts - عرض التنبيهات الحالية\n")
		if access.IsManager(senderID) {
			help.WriteString("/refresh - تحديث التنبيهات من الخادم الآن\n")
			help.WriteString("/add_subscriber <chat_id|here> <الاسم> - إضافة مستلم للتنبيهات\n")
			help.WriteString("/remove_subscriber <chat_id|here> - إيقاف إرسال التنبيهات لمستلم\n")
			help.WriteString("/list_subscribers [active|all] - عرض المستلمين\n")
		}
		help.WriteString("/help - عرض هذه الرسالة")
		return c.Send(help.String())
	})

	b.Handle("/alerts", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := cmdLogger.WithFields(logrus.Fields{"command": "/alerts", "sender_id": senderID})

		allowed, err := access.CanViewAlerts(ctx, c.Chat().ID, senderID)
		if err != nil {
			logCtx.WithError(err).Error("Error checking access for /alerts command")
			return c.Send(msgAccessFailed)
		}
		if !allowed {
			logCtx.Warn("Unauthorized access attempt")
			return c.Send(msgNoAccess)
		}

		snap := board.Current()
		logCtx.WithFields(logrus.Fields{"state": snap.State, "alerts_count": len(snap.Alerts)}).Info("Sending alert board")
		return c.Send(renderer.Board(snap), boardOptions(senderID))
	})

	b.Handle("/refresh", func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := cmdLogger.WithFields(logrus.Fields{"command": "/refresh", "sender_id": senderID})

		if !access.IsManager(senderID) {
			logCtx.Warn("Unauthorized access attempt")
			return c.Send(msgManagersOnly)
		}

		snap := refreshBoard(ctx, board, logCtx)
		return c.Send(renderer.Board(snap), boardOptions(senderID))
	})

	b.Handle(&refreshBtn, func(c telebot.Context) error {
		senderID := c.Sender().ID
		logCtx := cmdLogger.WithFields(logrus.Fields{"callback": refreshButtonUnique, "sender_id": senderID})

		if !access.IsManager(senderID) {
			logCtx.Warn("Unauthorized refresh attempt")
			return c.Respond(&telebot.CallbackResponse{Text: msgManagersOnly})
		}

		snap := refreshBoard(ctx, board, logCtx)
		if err := c.Edit(renderer.Board(snap), htmlOptions(markup)); err != nil && !errors.Is(err, telebot.ErrSameMessageContent) {
			logCtx.WithError(err).Error("Failed to update alert board message")
		}
		return c.Respond(&telebot.CallbackResponse{Text: msgRefreshed})
	})
}

// refreshBoard runs a refresh and returns what should be displayed.
// A superseded refresh shows whatever the newer run has published.
func refreshBoard(ctx context.Context, board AlertBoard, logCtx *logrus.Entry) app.Snapshot {
	snap, err := board.Refresh(ctx)
	if err != nil {
		if errors.Is(err, app.ErrRefreshSuperseded) || errors.Is(err, app.ErrServiceClosed) {
			return board.Current()
		}
		logCtx.WithError(err).Warn("Manual refresh failed")
	}
	return snap
}
