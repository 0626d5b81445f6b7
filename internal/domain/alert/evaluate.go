// internal/domain/alert/evaluate.go
package alert

import "studio_alert_bot/internal/domain/studio"

// Evaluate derives alerts from a complete snapshot of both collections.
// Print job alerts come first, then photo session alerts, each in source order.
// The result is unsorted; see Prioritize.
func Evaluate(printJobs []studio.PrintJob, photoSessions []studio.PhotoSession, w Window) []Alert {
	alerts := make([]Alert, 0)

	for _, job := range printJobs {
		if job.Status.Terminal() {
			continue
		}
		switch {
		case w.Overdue(job.DeliveryDate):
			alerts = append(alerts, newPrintJobAlert(job, KindOverdue, SeverityError, printOverdueMessage(job)))
		case w.Upcoming(job.DeliveryDate):
			alerts = append(alerts, newPrintJobAlert(job, KindUpcoming, SeverityWarning, printUpcomingMessage(job)))
		case job.Status == studio.PrintJobInProgress:
			alerts = append(alerts, newPrintJobAlert(job, KindInProgress, SeverityInfo, printInProgressMessage(job)))
		}
	}

	for _, session := range photoSessions {
		if session.Status.Terminal() {
			continue
		}
		switch {
		case w.Overdue(session.FinalDeliveryDate):
			alerts = append(alerts, newPhotoSessionAlert(session, KindOverdue, SeverityError, photoOverdueMessage(session)))
		case w.Upcoming(session.FinalDeliveryDate):
			alerts = append(alerts, newPhotoSessionAlert(session, KindUpcoming, SeverityWarning, photoUpcomingMessage(session)))
		case session.EditingStatus.Active():
			alerts = append(alerts, newPhotoSessionAlert(session, KindEditing, SeverityInfo, photoEditingMessage(session)))
		}

		// Unpaid balance is independent of the chain above.
		if session.RemainingAmount.IsPositive() {
			alerts = append(alerts, newPhotoSessionAlert(session, KindUnpaid, SeverityWarning, photoUnpaidMessage(session)))
		}
	}

	return alerts
}

// Derive runs one full pass: evaluation followed by ordering.
func Derive(printJobs []studio.PrintJob, photoSessions []studio.PhotoSession, w Window) []Alert {
	return Prioritize(Evaluate(printJobs, photoSessions, w))
}
