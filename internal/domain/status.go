package domain

import "time"

// VirtualStatus is derived from the due date at read time and never stored.
type VirtualStatus string

const (
	VirtualOverdue  VirtualStatus = "OVERDUE"
	VirtualDueToday VirtualStatus = "DUE_TODAY"
	VirtualDueSoon  VirtualStatus = "DUE_SOON"
)

// Classify derives the due status of an open account. today must be
// midnight of the current calendar day; dueSoonDays is the single
// configured due-soon threshold. The second result is the signed number of
// calendar days until dueDate.
func Classify(dueDate, today time.Time, dueSoonDays int) (VirtualStatus, int) {
	days := DaysBetween(today, dueDate)
	switch {
	case days < 0:
		return VirtualOverdue, days
	case days == 0:
		return VirtualDueToday, days
	case days <= dueSoonDays:
		return VirtualDueSoon, days
	}
	return "", days
}

// View derives the read-time view of a. Only open accounts get a virtual status.
func View(a Account, today time.Time, dueSoonDays int) AccountView {
	vs, days := Classify(a.DueDate, today, dueSoonDays)
	if !a.Status.Open() {
		vs = ""
	}
	return AccountView{Account: a, VirtualStatus: vs, DaysUntilDue: days}
}
