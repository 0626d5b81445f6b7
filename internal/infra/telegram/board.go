// internal/infra/telegram/board.go
package telegram

import (
	"fmt"
	"html"
	"strings"

	"studio_alert_bot/internal/app"
	"studio_alert_bot/internal/domain/alert"
)

// Telegram rejects messages longer than this many characters.
const maxMessageRunes = 4096

const (
	textBoardTitle    = "التنبيهات والمهام القادمة"
	textNewAlerts     = "تنبيهات جديدة"
	textLoading       = "جاري تحميل التنبيهات..."
	textNoAlerts      = "لا توجد تنبيهات حاليًا. كل شيء على ما يرام!"
	textErrorPrefix   = "خطأ: "
	textErrorHint     = "الرجاء التأكد من أن خادم الاستوديو يعمل وأن التوكن صحيح."
	textViewDetails   = "عرض التفاصيل"
	textLastRefreshed = "آخر تحديث: "
	textMoreAlerts    = "… و %d تنبيهات أخرى"
)

// Row is the display form of one alert.
type Row struct {
	Icon    string
	Message string
	Link    string
}

// BoardRenderer is the presentation adapter: it maps alerts to chat rows.
type BoardRenderer struct {
	frontendURL string
	maxRunes    int
}

func NewBoardRenderer(frontendURL string) *BoardRenderer {
	return &BoardRenderer{frontendURL: strings.TrimRight(frontendURL, "/"), maxRunes: maxMessageRunes}
}

var _ app.Renderer = (*BoardRenderer)(nil)

// RenderRow maps an alert to its icon, message and front end link.
func (r *BoardRenderer) RenderRow(a alert.Alert) Row {
	return Row{
		Icon:    severityMark(a.Severity) + kindIcon(a),
		Message: a.Message,
		Link:    r.link(a),
	}
}

func severityMark(s alert.Severity) string {
	switch s {
	case alert.SeverityError:
		return "🔴"
	case alert.SeverityWarning:
		return "🟡"
	default:
		return "🔵"
	}
}

func kindIcon(a alert.Alert) string {
	switch a.Kind {
	case alert.KindOverdue:
		if a.SourceKind == alert.SourcePrintJob {
			return "🖨"
		}
		return "📷"
	case alert.KindUpcoming:
		return "📅"
	case alert.KindUnpaid:
		return "💰"
	default:
		return "ℹ️"
	}
}

func (r *BoardRenderer) link(a alert.Alert) string {
	if r.frontendURL == "" {
		return ""
	}
	if a.SourceKind == alert.SourcePrintJob {
		return fmt.Sprintf("%s/#print-job-%d", r.frontendURL, a.SourceID)
	}
	return fmt.Sprintf("%s/#photo-session-%d", r.frontendURL, a.SourceID)
}

func (row Row) html() string {
	var b strings.Builder
	b.WriteString(row.Icon)
	b.WriteString(" ")
	b.WriteString(html.EscapeString(row.Message))
	if row.Link != "" {
		fmt.Fprintf(&b, ` <a href="%s">%s</a>`, html.EscapeString(row.Link), textViewDetails)
	}
	return b.String()
}

// Board renders a whole snapshot. An error state renders only the error.
func (r *BoardRenderer) Board(snap app.Snapshot) string {
	switch snap.State {
	case app.StateLoading:
		return textLoading
	case app.StateFailed, app.StateUnauthenticated:
		return textErrorPrefix + html.EscapeString(snap.ErrorMessage()) + "\n" + textErrorHint
	}

	if len(snap.Alerts) == 0 {
		return textNoAlerts
	}

	footer := ""
	if !snap.RefreshedAt.IsZero() {
		footer = "\n\n" + textLastRefreshed + snap.RefreshedAt.Format("2006-01-02 15:04")
	}
	header := fmt.Sprintf("<b>%s</b> (%d)\n\n", textBoardTitle, len(snap.Alerts))
	return r.list(header, footer, snap.Alerts)
}

// NewAlerts renders the push message for alerts a chat has not seen yet.
func (r *BoardRenderer) NewAlerts(alerts []alert.Alert) string {
	header := fmt.Sprintf("<b>%s</b> (%d)\n\n", textNewAlerts, len(alerts))
	return r.list(header, "", alerts)
}

// list joins rows, cutting off with a counter once the message would exceed maxRunes.
func (r *BoardRenderer) list(header, footer string, alerts []alert.Alert) string {
	var b strings.Builder
	b.WriteString(header)
	used := runeLen(header) + runeLen(footer)

	for i, a := range alerts {
		line := r.RenderRow(a).html() + "\n"
		rest := len(alerts) - i - 1
		reserve := 0
		if rest > 0 {
			reserve = runeLen(fmt.Sprintf(textMoreAlerts, rest)) + 1
		}
		if used+runeLen(line)+reserve > r.maxRunes {
			b.WriteString(fmt.Sprintf(textMoreAlerts, len(alerts)-i))
			b.WriteString("\n")
			break
		}
		b.WriteString(line)
		used += runeLen(line)
	}

	return strings.TrimRight(b.String(), "\n") + footer
}

func runeLen(s string) int {
	return len([]rune(s))
}
