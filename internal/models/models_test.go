package models

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDocumentExpiresWithin(t *testing.T) {
	now := date(2025, time.June, 1)

	doc := &Document{ExpirationDate: date(2025, time.June, 20)}
	if !doc.ExpiresWithin(now, 30) {
		t.Fatalf("expected document within 30 days to match")
	}
	if doc.ExpiresWithin(now, 7) {
		t.Fatalf("expected document outside 7 days not to match")
	}

	// 窗口上界为闭区间
	boundary := &Document{ExpirationDate: date(2025, time.July, 1)}
	if !boundary.ExpiresWithin(now, 30) {
		t.Fatalf("expected document on window boundary to match")
	}

	// 已过期的证件没有下界限制，同样命中
	expired := &Document{ExpirationDate: date(2025, time.January, 1)}
	if !expired.ExpiresWithin(now, 30) {
		t.Fatalf("expected expired document to match")
	}
	if !expired.IsExpired(now) {
		t.Fatalf("expected document to be expired")
	}
}

func TestMaintenanceReminderWithin(t *testing.T) {
	now := date(2025, time.June, 1)

	none := &Maintenance{}
	if none.ReminderWithin(now, 7) {
		t.Fatalf("expected maintenance without reminder not to match")
	}

	in3 := date(2025, time.June, 4)
	m := &Maintenance{ReminderDate: &in3}
	if !m.ReminderWithin(now, 7) {
		t.Fatalf("expected reminder within 7 days to match")
	}

	// 已过期的提醒不在 upcoming 窗口内
	past := date(2025, time.May, 20)
	overdue := &Maintenance{ReminderDate: &past}
	if overdue.ReminderWithin(now, 7) {
		t.Fatalf("expected past reminder not to match")
	}
	if !overdue.ReminderDue(now) {
		t.Fatalf("expected past reminder to be due")
	}

	boundary := now.AddDate(0, 0, 7)
	b := &Maintenance{ReminderDate: &boundary}
	if !b.ReminderWithin(now, 7) {
		t.Fatalf("expected reminder on boundary to match")
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2, 3}, 2, 15, 31)
	if p.LastPage != 3 {
		t.Fatalf("expected last_page 3, got %d", p.LastPage)
	}
	if p.CurrentPage != 2 || p.PerPage != 15 || p.Total != 31 {
		t.Fatalf("unexpected page fields: %+v", p)
	}

	empty := NewPage(nil, 1, 15, 0)
	if empty.LastPage != 1 {
		t.Fatalf("expected last_page 1 for empty result, got %d", empty.LastPage)
	}
}

func TestRoleHelpers(t *testing.T) {
	admin := &User{Role: RoleAdmin}
	chauffeur := &User{Role: RoleChauffeur}
	if !admin.IsAdmin() || admin.IsChauffeur() {
		t.Fatalf("admin role helpers wrong")
	}
	if !chauffeur.IsChauffeur() || chauffeur.IsAdmin() {
		t.Fatalf("chauffeur role helpers wrong")
	}
	if ValidRole("manager") {
		t.Fatalf("expected manager invalid")
	}
}
