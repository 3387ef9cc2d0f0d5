package model

import (
	"testing"
	"time"
)

func TestResolveCategory(t *testing.T) {
	cases := map[string]Category{
		"Library":       CategoryLibrary,
		" library ":     CategoryLibrary,
		"it services":   CategoryIT,
		"Food Services": CategoryFood,
		"Parking":       CategoryInfrastructure,
		"":              CategoryInfrastructure,
	}
	for in, want := range cases {
		if got := ResolveCategory(in); got != want {
			t.Errorf("ResolveCategory(%q)=%q, want %q", in, got, want)
		}
	}
}

func TestEscalationPath_ThreeLevels(t *testing.T) {
	for _, c := range Categories {
		if p := c.EscalationPath(); len(p) != MaxEscalationLevel {
			t.Errorf("%s: expected %d titles, got %d", c, MaxEscalationLevel, len(p))
		}
	}
	if p := Category("unknown").EscalationPath(); p[0] != "Maintenance Supervisor" {
		t.Errorf("unknown category should use the default path, got %v", p)
	}
}

func TestPrioritySLA(t *testing.T) {
	cases := map[Priority]time.Duration{
		PriorityUrgent: 24 * time.Hour,
		PriorityHigh:   48 * time.Hour,
		PriorityMedium: 72 * time.Hour,
		PriorityLow:    168 * time.Hour,
	}
	for p, want := range cases {
		if got := p.SLA(); got != want {
			t.Errorf("%s.SLA()=%s, want %s", p, got, want)
		}
	}
	if _, ok := ParsePriority("critical"); ok {
		t.Error("critical is not a known priority")
	}
	if p, ok := ParsePriority("URGENT"); !ok || p != PriorityUrgent {
		t.Errorf("ParsePriority(URGENT)=%q,%v", p, ok)
	}
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]Status{
		{StatusPending, StatusAssigned},
		{StatusAssigned, StatusInProgress},
		{StatusInProgress, StatusResolved},
		{StatusAssigned, StatusEscalated},
		{StatusInProgress, StatusEscalated},
		{StatusEscalated, StatusInProgress},
		{StatusPending, StatusRejected},
		{StatusInProgress, StatusRejected},
		{StatusResolved, StatusClosed},
	}
	for _, tr := range allowed {
		if !CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s → %s to be allowed", tr[0], tr[1])
		}
	}

	denied := [][2]Status{
		{StatusPending, StatusResolved},
		{StatusPending, StatusInProgress},
		{StatusPending, StatusEscalated},
		{StatusAssigned, StatusResolved},
		{StatusResolved, StatusRejected},
		{StatusEscalated, StatusEscalated},
		{StatusEscalated, StatusResolved},
		{StatusClosed, StatusResolved},
		{StatusRejected, StatusAssigned},
	}
	for _, tr := range denied {
		if CanTransition(tr[0], tr[1]) {
			t.Errorf("expected %s → %s to be denied", tr[0], tr[1])
		}
	}

	if !StatusClosed.Terminal() || !StatusRejected.Terminal() || StatusResolved.Terminal() {
		t.Error("terminal states mismatch")
	}
}

func TestStatusEscalatable(t *testing.T) {
	for _, s := range []Status{StatusAssigned, StatusInProgress} {
		if !s.Escalatable() {
			t.Errorf("expected %s to be escalatable", s)
		}
	}
	for _, s := range []Status{StatusPending, StatusEscalated, StatusResolved, StatusRejected, StatusClosed} {
		if s.Escalatable() {
			t.Errorf("expected %s not to be escalatable", s)
		}
	}
	if !StatusEscalated.InFlight() {
		t.Error("escalated complaints still count as in flight")
	}
}

func TestRank(t *testing.T) {
	if r, ok := ParseRank("supervisor"); !ok || r != RankSupervisor {
		t.Errorf("ParseRank(supervisor)=%v,%v", r, ok)
	}
	if _, ok := ParseRank("janitor"); ok {
		t.Error("janitor is not a rank")
	}
	for level := 1; level <= MaxEscalationLevel; level++ {
		r, ok := RankForLevel(level)
		if !ok || int(r) != level {
			t.Errorf("RankForLevel(%d)=%v,%v", level, r, ok)
		}
	}
	if _, ok := RankForLevel(MaxEscalationLevel + 1); ok {
		t.Error("no rank above director")
	}
	if RankDirector.String() != "Director" || Rank(9).String() != "Unknown" {
		t.Error("rank labels mismatch")
	}
}

func TestStaffTitle(t *testing.T) {
	s := &StaffMember{Department: CategoryLibrary, Rank: RankManager}
	if s.Title() != "Chief Librarian" {
		t.Errorf("got %q", s.Title())
	}
	s.Rank = RankAssistant
	if s.Title() != "Library Assistant" {
		t.Errorf("got %q", s.Title())
	}
}

func TestTicketCodeFor(t *testing.T) {
	if TicketCodeFor(7) != "CMP-007" || TicketCodeFor(1234) != "CMP-1234" {
		t.Error("unexpected ticket code format")
	}
}

func TestComplaintOverdue(t *testing.T) {
	now := time.Now()
	c := &Complaint{Status: StatusAssigned, DueDate: now.Add(-time.Hour)}
	if !c.Overdue(now) {
		t.Error("assigned complaint past due should be overdue")
	}
	c.Status = StatusResolved
	if c.Overdue(now) {
		t.Error("resolved complaint is never overdue")
	}
}
