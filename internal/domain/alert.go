package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ============================================================
// Payment alerts
// ============================================================

// AlertType says which due-date horizon an alert was raised for.
type AlertType string

const (
	AlertDueToday    AlertType = "DUE_TODAY"
	AlertDueTomorrow AlertType = "DUE_TOMORROW"
	AlertDueIn3Days  AlertType = "DUE_IN_3_DAYS"
	AlertDueIn7Days  AlertType = "DUE_IN_7_DAYS"
	AlertOverdue     AlertType = "OVERDUE"
)

// AlertPriority orders alerts for the operator.
type AlertPriority string

const (
	PriorityLow    AlertPriority = "LOW"
	PriorityMedium AlertPriority = "MEDIUM"
	PriorityHigh   AlertPriority = "HIGH"
	PriorityUrgent AlertPriority = "URGENT"
)

// Rank returns a sortable weight, higher is more urgent.
func (p AlertPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 4
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Priorities lists every priority from most to least urgent.
var Priorities = []AlertPriority{PriorityUrgent, PriorityHigh, PriorityMedium, PriorityLow}

// AlertHorizon maps a days-ahead window to the alert it raises.
type AlertHorizon struct {
	Days     int
	Type     AlertType
	Priority AlertPriority
}

// AlertHorizons are scanned on every generation run.
var AlertHorizons = []AlertHorizon{
	{Days: 0, Type: AlertDueToday, Priority: PriorityUrgent},
	{Days: 1, Type: AlertDueTomorrow, Priority: PriorityHigh},
	{Days: 3, Type: AlertDueIn3Days, Priority: PriorityMedium},
	{Days: 7, Type: AlertDueIn7Days, Priority: PriorityLow},
}

// PaymentAlert points at exactly one payable or receivable. AlertDay is the
// calendar day it was raised on; (Kind, AccountID, Type, AlertDay) is unique.
type PaymentAlert struct {
	ID        int64           `json:"id"`
	Kind      AccountKind     `json:"kind"`
	AccountID int64           `json:"accountId"`
	AlertDate time.Time       `json:"alertDate"`
	AlertDay  time.Time       `json:"-"`
	DueDate   time.Time       `json:"dueDate"`
	Amount    decimal.Decimal `json:"amount"`
	Type      AlertType       `json:"type"`
	Priority  AlertPriority   `json:"priority"`
	Read      bool            `json:"read"`
	ReadAt    *time.Time      `json:"readAt,omitempty"`
	Dismissed bool            `json:"dismissed"`
}

// AlertFilter selects alerts. Nil flags are not filtered on.
type AlertFilter struct {
	Read      *bool
	Dismissed *bool
	Priority  AlertPriority
	Type      AlertType
	Kind      AccountKind
	AccountID *int64
	Page      int
	Limit     int
}

// GenerationResult reports what one alert generation run did.
type GenerationResult struct {
	Created int               `json:"created"`
	Skipped int               `json:"skipped"`
	ByType  map[AlertType]int `json:"byType"`
}
