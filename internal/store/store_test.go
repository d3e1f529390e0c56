package store

import (
	"errors"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func TestUpsertUserFirstWriteWins(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(42, "alice", "Alice"); err != nil {
		t.Fatalf("UpsertUser: %v", err)
	}
	if err := s.UpsertUser(42, "renamed", "Someone Else"); err != nil {
		t.Fatalf("UpsertUser repeat: %v", err)
	}

	u, ok := s.GetUser(42)
	if !ok {
		t.Fatal("expected user to exist")
	}
	if u.Username != "alice" || u.Name != "Alice" {
		t.Errorf("profile was overwritten: got %q/%q", u.Username, u.Name)
	}
}

func TestBanUnban(t *testing.T) {
	s := newTestStore(t)

	if err := s.UpsertUser(1, "a", "A"); err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(2, "b", "B"); err != nil {
		t.Fatal(err)
	}

	if err := s.SetBanned(1, true); err != nil {
		t.Fatalf("SetBanned: %v", err)
	}
	// idempotent
	if err := s.SetBanned(1, true); err != nil {
		t.Fatalf("SetBanned repeat: %v", err)
	}

	if !s.IsBanned(1) {
		t.Error("user 1 should be banned")
	}
	if s.IsBanned(2) {
		t.Error("user 2 should not be banned")
	}

	if got := len(s.ListActive()); got != 1 {
		t.Errorf("ListActive = %d, want 1", got)
	}
	if got := len(s.ListBanned()); got != 1 {
		t.Errorf("ListBanned = %d, want 1", got)
	}

	if err := s.SetBanned(1, false); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if s.IsBanned(1) {
		t.Error("user 1 should be unbanned")
	}
	if got := len(s.ListActive()); got != 2 {
		t.Errorf("ListActive after unban = %d, want 2", got)
	}
}

func TestPlanIDsNeverReused(t *testing.T) {
	s := newTestStore(t)

	p1, err := s.CreatePlan(7, 49, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	p2, err := s.CreatePlan(30, 199, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	if p1.ID != 1 || p2.ID != 2 {
		t.Fatalf("unexpected ids: %d, %d", p1.ID, p2.ID)
	}

	if err := s.DeletePlan(p1.ID); err != nil {
		t.Fatalf("DeletePlan: %v", err)
	}

	p3, err := s.CreatePlan(90, 499, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	if p3.ID != 3 {
		t.Errorf("id %d was reused, want 3", p3.ID)
	}

	if err := s.DeletePlan(99); !errors.Is(err, ErrPlanNotFound) {
		t.Errorf("DeletePlan(99) = %v, want ErrPlanNotFound", err)
	}
}

func TestPaymentSnapshotSurvivesPlanDeletion(t *testing.T) {
	s := newTestStore(t)

	plan, err := s.CreatePlan(7, 49, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	payment, err := s.CreatePendingPayment(42, plan.ID, "file-id")
	if err != nil {
		t.Fatalf("CreatePendingPayment: %v", err)
	}

	if err := s.DeletePlan(plan.ID); err != nil {
		t.Fatal(err)
	}

	pending := s.PendingPayments()
	if len(pending) != 1 {
		t.Fatalf("PendingPayments = %d, want 1", len(pending))
	}
	if pending[0].PlanDays != 7 || pending[0].PlanPrice != 49 {
		t.Errorf("snapshot lost: days=%d price=%d", pending[0].PlanDays, pending[0].PlanPrice)
	}

	decided, err := s.DecidePayment(payment.ID, PaymentApproved)
	if err != nil {
		t.Fatalf("DecidePayment: %v", err)
	}
	if decided.PlanDays != 7 {
		t.Errorf("decided snapshot days = %d, want 7", decided.PlanDays)
	}
}

func TestDecidePaymentOneShot(t *testing.T) {
	s := newTestStore(t)

	plan, err := s.CreatePlan(7, 49, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	payment, err := s.CreatePendingPayment(42, plan.ID, "file-id")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := s.DecidePayment(payment.ID, PaymentApproved); err != nil {
		t.Fatalf("first decision: %v", err)
	}
	if _, err := s.DecidePayment(payment.ID, PaymentRejected); !errors.Is(err, ErrPaymentDecided) {
		t.Errorf("second decision = %v, want ErrPaymentDecided", err)
	}
	if _, err := s.DecidePayment(999, PaymentApproved); !errors.Is(err, ErrPaymentNotFound) {
		t.Errorf("missing payment = %v, want ErrPaymentNotFound", err)
	}

	if got := len(s.PendingPayments()); got != 0 {
		t.Errorf("decided payment still pending: %d", got)
	}
}

func TestCorrelation(t *testing.T) {
	s := newTestStore(t)

	if err := s.RecordCorrelation(101, 42); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordCorrelation(102, 42); err != nil {
		t.Fatal(err)
	}

	if got, ok := s.ResolveCorrelation(101); !ok || got != 42 {
		t.Errorf("ResolveCorrelation(101) = %d,%v", got, ok)
	}
	if got, ok := s.ResolveCorrelation(102); !ok || got != 42 {
		t.Errorf("ResolveCorrelation(102) = %d,%v", got, ok)
	}
	if _, ok := s.ResolveCorrelation(999); ok {
		t.Error("unknown message id should not resolve")
	}
}

func TestCloneLazyExpiry(t *testing.T) {
	s := newTestStore(t)

	if err := s.RegisterClone(42, "token-a", 7); err != nil {
		t.Fatal(err)
	}
	clone, err := s.GetClone(42)
	if err != nil {
		t.Fatal(err)
	}
	if clone == nil || clone.BotToken != "token-a" {
		t.Fatalf("expected live clone, got %+v", clone)
	}

	// registration already in the past
	if err := s.RegisterClone(42, "token-b", -1); err != nil {
		t.Fatal(err)
	}
	clone, err = s.GetClone(42)
	if err != nil {
		t.Fatal(err)
	}
	if clone != nil {
		t.Errorf("expired clone still returned: %+v", clone)
	}
	// flip is persisted, second read agrees
	clone, err = s.GetClone(42)
	if err != nil || clone != nil {
		t.Errorf("second read after expiry: %+v, %v", clone, err)
	}

	if c, err := s.GetClone(7); err != nil || c != nil {
		t.Errorf("unknown user clone: %+v, %v", c, err)
	}
}

func TestReloadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertUser(42, "alice", "Alice"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetBanned(42, true); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePlan(7, 49, "a@upi"); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordCorrelation(101, 42); err != nil {
		t.Fatal(err)
	}

	reloaded, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reloaded.IsBanned(42) {
		t.Error("ban lost on reload")
	}
	if got, ok := reloaded.ResolveCorrelation(101); !ok || got != 42 {
		t.Errorf("correlation lost on reload: %d,%v", got, ok)
	}

	// id counter is seeded past the persisted plans
	p, err := reloaded.CreatePlan(30, 199, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	if p.ID != 2 {
		t.Errorf("plan id after reload = %d, want 2", p.ID)
	}
}

func TestStats(t *testing.T) {
	s := newTestStore(t)

	for id := int64(1); id <= 3; id++ {
		if err := s.UpsertUser(id, "", "U"); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.SetBanned(2, true); err != nil {
		t.Fatal(err)
	}
	plan, err := s.CreatePlan(7, 49, "a@upi")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreatePendingPayment(1, plan.ID, "f"); err != nil {
		t.Fatal(err)
	}
	if err := s.RegisterClone(3, "tok", 7); err != nil {
		t.Fatal(err)
	}

	st := s.Stats()
	if st.Users != 3 || st.Active != 2 || st.Banned != 1 {
		t.Errorf("user counts: %+v", st)
	}
	if st.Plans != 1 || st.PendingPayments != 1 || st.ActiveClones != 1 {
		t.Errorf("entity counts: %+v", st)
	}
}

func TestGreetingNeverEmpty(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 20; i++ {
		if s.Greeting() == "" {
			t.Fatal("empty greeting")
		}
	}
}
