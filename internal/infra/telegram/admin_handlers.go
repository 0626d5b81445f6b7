package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"studio_alert_bot/internal/app"
	"studio_alert_bot/internal/domain/subscriber"
	idb "studio_alert_bot/internal/infra/database"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

// parseChatArg accepts a numeric chat id or "here" for the current chat.
func parseChatArg(c telebot.Context, arg string) (int64, error) {
	if strings.EqualFold(arg, "here") {
		return c.Chat().ID, nil
	}
	return strconv.ParseInt(arg, 10, 64)
}

// RegisterAdminHandlers registers the manager-only subscriber commands.
func RegisterAdminHandlers(ctx context.Context, b *telebot.Bot, adminService *app.AdminService, baseLogger *logrus.Entry) {
	b.Handle("/add_subscriber", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/add_subscriber",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsManager(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgManagersOnly)
		}

		// Expected format: /add_subscriber <chat_id|here> <name...>
		args := c.Args()
		if len(args) < 2 {
			handlerLogger.WithField("args_count", len(args)).Warn("Invalid command format")
			return c.Send("صيغة غير صحيحة. استخدم: /add_subscriber <chat_id|here> <الاسم>")
		}

		chatID, err := parseChatArg(c, args[0])
		if err != nil {
			return c.Send("خطأ: معرّف المحادثة يجب أن يكون رقمًا أو here.")
		}
		name := strings.TrimSpace(strings.Join(args[1:], " "))
		if name == "" {
			return c.Send("خطأ: الاسم لا يمكن أن يكون فارغًا.")
		}
		handlerLogger = handlerLogger.WithFields(logrus.Fields{"chat_id": chatID, "name": name})

		sub, err := adminService.AddSubscriber(ctx, c.Sender().ID, chatID, name, "")
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Manager not authorized (service level)")
				return c.Send(msgManagersOnly)
			case errors.Is(err, app.ErrSubscriberAlreadyExists):
				logWithError.Warn("Subscriber already exists")
				return c.Send(fmt.Sprintf("المحادثة %d مسجلة بالفعل لاستلام التنبيهات.", chatID))
			default:
				logWithError.Error("Failed to add subscriber")
				return c.Send(fmt.Sprintf("حدث خطأ أثناء إضافة المستلم: %s", err.Error()))
			}
		}

		handlerLogger.WithField("subscriber_id", sub.ID).Info("Subscriber added successfully")
		return c.Send(fmt.Sprintf("تمت إضافة %s (المحادثة %d) لاستلام التنبيهات.", sub.Name, sub.ChatID))
	})

	b.Handle("/remove_subscriber", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/remove_subscriber",
			"sender_id": c.Sender().ID,
		})
		handlerLogger.Info("Command received")

		if !adminService.IsManager(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgManagersOnly)
		}

		args := c.Args()
		if len(args) != 1 {
			return c.Send("صيغة غير صحيحة. استخدم: /remove_subscriber <chat_id|here>")
		}
		chatID, err := parseChatArg(c, args[0])
		if err != nil {
			handlerLogger.WithField("arg", args[0]).Warn("Invalid chat ID format")
			return c.Send("خطأ: معرّف المحادثة يجب أن يكون رقمًا أو here.")
		}
		handlerLogger = handlerLogger.WithField("chat_id", chatID)

		removed, err := adminService.RemoveSubscriber(ctx, c.Sender().ID, chatID)
		if err != nil {
			logWithError := handlerLogger.WithError(err)
			switch {
			case errors.Is(err, app.ErrAdminNotAuthorized):
				logWithError.Warn("Manager not authorized (service level)")
				return c.Send(msgManagersOnly)
			case errors.Is(err, idb.ErrSubscriberNotFound):
				logWithError.Warn("Subscriber to remove not found")
				return c.Send(fmt.Sprintf("لا يوجد مستلم بمعرّف المحادثة %d.", chatID))
			case errors.Is(err, app.ErrSubscriberAlreadyInactive):
				logWithError.Warn("Subscriber already inactive")
				return c.Send(fmt.Sprintf("المستلم %s (المحادثة %d) موقوف بالفعل.", removed.Name, removed.ChatID))
			default:
				logWithError.Error("Failed to remove subscriber")
				return c.Send(fmt.Sprintf("حدث خطأ أثناء إيقاف المستلم: %s", err.Error()))
			}
		}

		handlerLogger.WithField("subscriber_id", removed.ID).Info("Subscriber deactivated successfully")
		return c.Send(fmt.Sprintf("تم إيقاف إرسال التنبيهات إلى %s (المحادثة %d).", removed.Name, removed.ChatID))
	})

	b.Handle("/list_subscribers", func(c telebot.Context) error {
		handlerLogger := baseLogger.WithFields(logrus.Fields{
			"handler":   "/list_subscribers",
			"sender_id": c.Sender().ID,
		})
		if !adminService.IsManager(c.Sender().ID) {
			handlerLogger.Warn("Unauthorized access attempt")
			return c.Send(msgManagersOnly)
		}

		listType := "active"
		if args := c.Args(); len(args) > 0 {
			listType = strings.ToLower(args[0])
		}
		handlerLogger = handlerLogger.WithField("list_type", listType)

		var (
			subs  []*subscriber.Subscriber
			err   error
			title string
		)
		switch listType {
		case "active":
			title = "المستلمون النشطون"
			subs, err = adminService.ListActiveSubscribers(ctx, c.Sender().ID)
		case "all":
			title = "كل المستلمين"
			subs, err = adminService.ListAllSubscribers(ctx, c.Sender().ID)
		default:
			handlerLogger.Warn("Invalid list type argument")
			return c.Send("وسيط غير صحيح. استخدم active أو all.")
		}
		if err != nil {
			handlerLogger.WithError(err).Error("Failed to get list of subscribers")
			return c.Send(fmt.Sprintf("حدث خطأ أثناء جلب المستلمين: %s", err.Error()))
		}

		if len(subs) == 0 {
			return c.Send("لا يوجد مستلمون.")
		}
		handlerLogger.WithField("subscribers_count", len(subs)).Info("Successfully retrieved subscriber list")
		return c.Send(formatSubscribers(title, subs))
	})
}

func formatSubscribers(title string, subs []*subscriber.Subscriber) string {
	var response strings.Builder
	response.WriteString(fmt.Sprintf("--- %s ---\n", title))
	for _, s := range subs {
		status := "موقوف"
		if s.IsActive {
			status = "نشط"
		}
		response.WriteString(fmt.Sprintf("%s: المحادثة %d، الحالة: %s\n", s.Name, s.ChatID, status))
	}
	return strings.TrimRight(response.String(), "\n")
}
