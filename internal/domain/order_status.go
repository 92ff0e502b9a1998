package domain

// Status is the fulfillment axis of an order. It moves through the prepare
// and deliver steps one at a time; Cancelled is reachable from any
// non-terminal state. Delivered and Cancelled are terminal.
type Status string

const (
	StatusPending   Status = "Pending"
	StatusPreparing Status = "Preparing"
	StatusOnTheWay  Status = "On The Way"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusPreparing: true, StatusCancelled: true},
	StatusPreparing: {StatusOnTheWay: true, StatusCancelled: true},
	StatusOnTheWay:  {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func CanTransition(from, to Status) bool {
	return validNext[from][to]
}

func (s Status) IsTerminal() bool {
	return len(validNext[s]) == 0
}

func IsValidStatus(s Status) bool {
	_, ok := validNext[s]
	return ok
}

// PaymentStatus is orthogonal to Status: an admin can move an order through
// fulfillment independently of whether it has been paid.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "Pending"
	PaymentPaid     PaymentStatus = "Paid"
	PaymentFailed   PaymentStatus = "Failed"
	PaymentRefunded PaymentStatus = "Refunded"
)
