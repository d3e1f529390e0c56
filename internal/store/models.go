package store

import "time"

// PaymentStatus - lifecycle of a manual payment review.
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentRejected PaymentStatus = "rejected"
)

func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentPending, PaymentApproved, PaymentRejected:
		return true
	}
	return false
}

// User - anyone who has ever talked to the bot. Profile fields are
// first-write-wins; records are never deleted.
type User struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Name     string    `json:"name"`
	Joined   time.Time `json:"joined"`
	Active   bool      `json:"is_active"`
}

// Plan - a subscription plan. Immutable after creation, removable by id.
type Plan struct {
	ID      int       `json:"id"`
	Days    int       `json:"days"`
	Price   int       `json:"price"`
	UPI     string    `json:"upi_id"`
	Created time.Time `json:"created"`
}

// PendingPayment snapshots the plan's days and price at creation time,
// so the record stays meaningful if the plan is deleted later.
type PendingPayment struct {
	ID         int           `json:"id"`
	UserID     int64         `json:"user_id"`
	PlanID     int           `json:"plan_id"`
	PlanDays   int           `json:"plan_days"`
	PlanPrice  int           `json:"plan_price"`
	Screenshot string        `json:"screenshot"`
	Created    time.Time     `json:"time"`
	Status     PaymentStatus `json:"status"`
}

// CloneRegistration - one per user, overwritten on repurchase. The
// Active flag is only flipped lazily when the record is read after
// its expiry; there is no background sweep.
type CloneRegistration struct {
	BotToken string    `json:"bot_token"`
	Created  time.Time `json:"created"`
	Expiry   time.Time `json:"expiry"`
	PlanDays int       `json:"plan_days"`
	Active   bool      `json:"active"`
}

type Stats struct {
	Users           int
	Active          int
	Banned          int
	Plans           int
	PendingPayments int
	ActiveClones    int
}
