package studio

// PrintJobStatus mirrors the backend's print job status codes.
type PrintJobStatus string

const (
	PrintJobPending          PrintJobStatus = "pending"
	PrintJobInProgress       PrintJobStatus = "in_progress"
	PrintJobCompleted        PrintJobStatus = "completed"
	PrintJobReadyForDelivery PrintJobStatus = "ready_for_delivery"
	PrintJobDelivered        PrintJobStatus = "delivered"
	PrintJobCancelled        PrintJobStatus = "cancelled"
	PrintJobPartiallyPaid    PrintJobStatus = "partially_paid"
)

// Terminal reports whether no further alerting is meaningful for the job.
func (s PrintJobStatus) Terminal() bool {
	switch s {
	case PrintJobDelivered, PrintJobCancelled, PrintJobCompleted:
		return true
	}
	return false
}

// SessionStatus mirrors the backend's photo session status codes.
type SessionStatus string

const (
	SessionScheduled        SessionStatus = "scheduled"
	SessionInProgress       SessionStatus = "in_progress"
	SessionCompleted        SessionStatus = "completed"
	SessionDelivered        SessionStatus = "delivered"
	SessionCancelled        SessionStatus = "cancelled"
	SessionProcessing       SessionStatus = "processing"
	SessionReadyForDelivery SessionStatus = "ready_for_delivery"
	SessionPartiallyPaid    SessionStatus = "partially_paid"
)

func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionDelivered, SessionCancelled, SessionCompleted:
		return true
	}
	return false
}

// EditingStatus tracks post-production progress of a photo session.
type EditingStatus string

const (
	EditingNotStarted          EditingStatus = "not_started"
	EditingInShooting          EditingStatus = "in_shooting"
	EditingRawMaterialUploaded EditingStatus = "raw_material_uploaded"
	EditingInEditing           EditingStatus = "in_editing"
	EditingReadyForReview      EditingStatus = "ready_for_review"
	EditingReadyForPrinting    EditingStatus = "ready_for_printing"
	EditingInPrinting          EditingStatus = "in_printing"
	EditingCompleted           EditingStatus = "completed"
)

// Active reports whether the session is still being shot or edited.
// in_printing and completed are past the editing desk.
func (s EditingStatus) Active() bool {
	switch s {
	case EditingInShooting, EditingRawMaterialUploaded, EditingInEditing, EditingReadyForReview, EditingReadyForPrinting:
		return true
	}
	return false
}
