// internal/domain/studio/entities.go
package studio

import "strconv"

// PrintJob is the subset of the backend print job record the bot reads.
// ReceiptNumber is empty when the backend has not assigned one yet.
type PrintJob struct {
	ID            int64          `json:"id"`
	ReceiptNumber string         `json:"receipt_number"`
	Status        PrintJobStatus `json:"status"`
	DeliveryDate  Date           `json:"delivery_date"`
}

// PhotoSession is the subset of the backend photo session record the bot reads.
type PhotoSession struct {
	ID                   int64           `json:"id"`
	ReceiptNumber        string          `json:"receipt_number"`
	Status               SessionStatus   `json:"status"`
	EditingStatus        EditingStatus   `json:"editing_status"`
	EditingStatusDisplay string          `json:"editing_status_display"`
	FinalDeliveryDate    Date            `json:"final_delivery_date"`
	RemainingAmount      Amount          `json:"remaining_amount"`
}

// Label is the receipt number, or the numeric id when none was assigned.
func Label(receiptNumber string, id int64) string {
	if receiptNumber != "" {
		return receiptNumber
	}
	return strconv.FormatInt(id, 10)
}

func (j PrintJob) Label() string {
	return Label(j.ReceiptNumber, j.ID)
}

func (s PhotoSession) Label() string {
	return Label(s.ReceiptNumber, s.ID)
}

// EditingLabel is the human readable editing status, falling back to the code.
func (s PhotoSession) EditingLabel() string {
	if s.EditingStatusDisplay != "" {
		return s.EditingStatusDisplay
	}
	return string(s.EditingStatus)
}
