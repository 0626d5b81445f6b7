package alert

import (
	"fmt"

	"studio_alert_bot/internal/domain/studio"
)

// Currency appended to amounts in messages.
const Currency = "SAR"

func printOverdueMessage(job studio.PrintJob) string {
	return fmt.Sprintf("طلب طباعة رقم %s متأخر! تاريخ التسليم كان %s.", job.Label(), job.DeliveryDate)
}

func printUpcomingMessage(job studio.PrintJob) string {
	return fmt.Sprintf("طلب طباعة رقم %s يستحق التسليم قريبًا: %s.", job.Label(), job.DeliveryDate)
}

func printInProgressMessage(job studio.PrintJob) string {
	return fmt.Sprintf("طلب طباعة رقم %s قيد التنفيذ.", job.Label())
}

func photoOverdueMessage(s studio.PhotoSession) string {
	return fmt.Sprintf("جلسة تصوير رقم %s متأخرة! تاريخ التسليم النهائي كان %s.", s.Label(), s.FinalDeliveryDate)
}

func photoUpcomingMessage(s studio.PhotoSession) string {
	return fmt.Sprintf("جلسة تصوير رقم %s تستحق التسليم قريبًا: %s.", s.Label(), s.FinalDeliveryDate)
}

func photoEditingMessage(s studio.PhotoSession) string {
	return fmt.Sprintf("جلسة تصوير رقم %s قيد المعالجة (%s).", s.Label(), s.EditingLabel())
}

func photoUnpaidMessage(s studio.PhotoSession) string {
	return fmt.Sprintf("جلسة تصوير رقم %s لديها مبلغ متبقي: %s %s.", s.Label(), s.RemainingAmount.StringFixed(2), Currency)
}
