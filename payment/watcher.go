package payment

import (
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"sync"
	"time"
	"vital_geo/currency"
	"vital_geo/database"
	"vital_geo/model"
)

type TransactionsAPI interface {
	MyTransactions(ctx context.Context) ([]model.Payment, error)
}

// Notification is a one-shot message about a decided payment.
type Notification struct {
	ID        string              `json:"id"`
	PaymentID string              `json:"paymentId"`
	BookingID string              `json:"bookingId"`
	Status    model.PaymentStatus `json:"status"`
	Title     string              `json:"title"`
	Message   string              `json:"message"`
	CreatedAt time.Time           `json:"createdAt"`
}

// notifiedStatuses maps a user id to the last status notified for each of
// that user's payment ids.
type notifiedStatuses map[string]map[string]model.PaymentStatus

// Watcher polls the signed-in user's payments. The last status notified for
// each payment id is kept in storage per user, so a restart or an account
// switch neither repeats a notification nor misses a decision.
type Watcher struct {
	api      TransactionsAPI
	store    database.Store
	interval time.Duration
	owner    func() string
	now      func() time.Time

	persistMu sync.Mutex
	mu        sync.RWMutex
	payments  []model.Payment
	notified  notifiedStatuses
	listeners []func(Notification)
}

// NewWatcher builds a watcher. owner reports the id of the signed-in user;
// nil treats every fetch as belonging to one anonymous owner.
func NewWatcher(api TransactionsAPI, store database.Store, interval time.Duration, owner func() string) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if owner == nil {
		owner = func() string { return "" }
	}
	w := &Watcher{
		api:      api,
		store:    store,
		interval: interval,
		owner:    owner,
		now:      time.Now,
		notified: notifiedStatuses{},
	}
	if _, err := store.Load(database.SlotPaymentNotified, &w.notified); err != nil || w.notified == nil {
		if err != nil {
			logrus.Errorf("NewWatcher: error in loading notified statuses err = %v", err)
		}
		w.notified = notifiedStatuses{}
	}
	return w
}

func (w *Watcher) Subscribe(fn func(Notification)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.listeners = append(w.listeners, fn)
}

// Refresh fetches the payments and returns a notification for every payment
// that reached verified or rejected since it was last seen. Only the
// signed-in user's entries are replaced; other users' state is kept.
func (w *Watcher) Refresh(ctx context.Context) ([]Notification, error) {
	owner := w.owner()
	payments, err := w.api.MyTransactions(ctx)
	if err != nil {
		return nil, err
	}
	if w.owner() != owner {
		logrus.Infof("Refresh: session changed during fetch, discarding result")
		return nil, nil
	}

	w.persistMu.Lock()
	w.mu.Lock()
	var notes []Notification
	known := w.notified[owner]
	next := make(map[string]model.PaymentStatus, len(payments))
	for _, p := range payments {
		prev, seen := known[p.ID]
		if seen && prev != p.Status && p.Status.IsTerminal() {
			notes = append(notes, w.notification(p))
		}
		next[p.ID] = p.Status
	}
	changed := !sameStatuses(known, next)
	w.notified[owner] = next
	w.payments = payments
	var snapshot notifiedStatuses
	if changed {
		snapshot = make(notifiedStatuses, len(w.notified))
		for user, statuses := range w.notified {
			snapshot[user] = statuses
		}
	}
	listeners := append([]func(Notification){}, w.listeners...)
	w.mu.Unlock()

	if changed {
		if err := w.store.Save(database.SlotPaymentNotified, snapshot); err != nil {
			logrus.Errorf("Refresh: error in saving notified statuses err = %v", err)
		}
	}
	w.persistMu.Unlock()

	for _, n := range notes {
		for _, fn := range listeners {
			fn(n)
		}
	}
	return notes, nil
}

// Run refreshes now and then every interval until ctx is done. Ticks where
// active reports false are skipped; a nil active always refreshes.
func (w *Watcher) Run(ctx context.Context, active func() bool) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		if active == nil || active() {
			if _, err := w.Refresh(ctx); err != nil && ctx.Err() == nil {
				logrus.Errorf("Run: Failed to fetch transactions err = %v", err)
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Payments returns the list from the last successful refresh.
func (w *Watcher) Payments() []model.Payment {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]model.Payment{}, w.payments...)
}

// Filter returns the payments with status, or all of them for "all" or "".
func (w *Watcher) Filter(status string) []model.Payment {
	return FilterByStatus(w.Payments(), status)
}

func FilterByStatus(payments []model.Payment, status string) []model.Payment {
	out := make([]model.Payment, 0, len(payments))
	for _, p := range payments {
		if status == "" || status == "all" || string(p.Status) == status {
			out = append(out, p)
		}
	}
	return out
}

func (w *Watcher) notification(p model.Payment) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		PaymentID: p.ID,
		BookingID: p.BookingID,
		Status:    p.Status,
		CreatedAt: w.now(),
	}
	if p.Status == model.PaymentStatusVerified {
		n.Title = "Payment Accepted!"
		n.Message = fmt.Sprintf("Your payment of $%s for %s has been verified successfully.", currency.FormatGrouped(p.Amount), p.ProductName())
		return n
	}
	n.Title = "Payment Rejected"
	n.Message = "Your payment request has been rejected."
	if p.Notes != "" {
		n.Message += " Reason: " + p.Notes
	}
	return n
}

func sameStatuses(a, b map[string]model.PaymentStatus) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if b[k] != v {
			return false
		}
	}
	return true
}
