package model

import (
	"strings"
	"time"
)

// ── Role ──

// Role account role carried in the access token
type Role string

const (
	RoleStudent Role = "student"
	RoleStaff   Role = "staff"
	RoleAdmin   Role = "admin"
)

var roles = map[Role]struct{}{RoleStudent: {}, RoleStaff: {}, RoleAdmin: {}}

// ParseRole returns the role for s, reporting whether it is known
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	_, ok := roles[r]
	return r, ok
}

// ── Category / department ──

// Category complaint category; each category is handled by the department of the same name
type Category string

const (
	CategoryIT             Category = "IT Services"
	CategoryLibrary        Category = "Library"
	CategoryHostel         Category = "Hostel"
	CategoryFood           Category = "Food Services"
	CategoryAcademic       Category = "Academic"
	CategoryInfrastructure Category = "Infrastructure"
	CategoryTransport      Category = "Transport"
	CategoryAdministration Category = "Administration"

	// DefaultCategory receives complaints whose category is not recognised
	DefaultCategory = CategoryInfrastructure
)

// Categories lists every known category in display order
var Categories = []Category{
	CategoryIT, CategoryLibrary, CategoryHostel, CategoryFood,
	CategoryAcademic, CategoryInfrastructure, CategoryTransport, CategoryAdministration,
}

// escalationPaths role titles for escalation levels 1, 2 and 3 of each department
var escalationPaths = map[Category][MaxEscalationLevel]string{
	CategoryIT:             {"IT Support Supervisor", "IT Manager", "Chief Information Officer"},
	CategoryLibrary:        {"Library Supervisor", "Chief Librarian", "Dean of Academics"},
	CategoryHostel:         {"Hostel Warden", "Chief Warden", "Dean of Student Welfare"},
	CategoryFood:           {"Mess Supervisor", "Catering Manager", "Dean of Student Welfare"},
	CategoryAcademic:       {"Class Coordinator", "Head of Department", "Dean of Academics"},
	CategoryInfrastructure: {"Maintenance Supervisor", "Estate Manager", "Registrar"},
	CategoryTransport:      {"Transport Supervisor", "Transport Manager", "Registrar"},
	CategoryAdministration: {"Office Superintendent", "Deputy Registrar", "Registrar"},
}

var categoryIndex = func() map[string]Category {
	m := make(map[string]Category, len(Categories))
	for _, c := range Categories {
		m[strings.ToLower(string(c))] = c
	}
	return m
}()

// ParseCategory matches s case-insensitively against the known categories
func ParseCategory(s string) (Category, bool) {
	c, ok := categoryIndex[strings.ToLower(strings.TrimSpace(s))]
	return c, ok
}

// ResolveCategory maps s to a known category, falling back to DefaultCategory
func ResolveCategory(s string) Category {
	if c, ok := ParseCategory(s); ok {
		return c
	}
	return DefaultCategory
}

// EscalationPath role titles for levels 1..3
func (c Category) EscalationPath() []string {
	p, ok := escalationPaths[c]
	if !ok {
		p = escalationPaths[DefaultCategory]
	}
	return []string{p[0], p[1], p[2]}
}

// ── Priority ──

// Priority complaint urgency; drives the due date
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// slaOffsets hours allowed per priority before a complaint is overdue
var slaOffsets = map[Priority]time.Duration{
	PriorityUrgent: 24 * time.Hour,
	PriorityHigh:   48 * time.Hour,
	PriorityMedium: 72 * time.Hour,
	PriorityLow:    168 * time.Hour,
}

// ParsePriority returns the priority for s, reporting whether it is known
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	_, ok := slaOffsets[p]
	return p, ok
}

// SLA offset from submission to due date; unknown priorities get the medium offset
func (p Priority) SLA() time.Duration {
	if d, ok := slaOffsets[p]; ok {
		return d
	}
	return slaOffsets[PriorityMedium]
}

// ── Status ──

// Status complaint lifecycle state
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
	StatusEscalated  Status = "escalated"
	StatusClosed     Status = "closed"
)

// transitions allowed target states per source state. A resolved complaint
// cannot be rejected: its resolution already counts toward the assignee's
// resolved_complaints, which never goes down.
var transitions = map[Status]map[Status]bool{
	StatusPending:    {StatusAssigned: true, StatusRejected: true},
	StatusAssigned:   {StatusInProgress: true, StatusEscalated: true, StatusRejected: true},
	StatusInProgress: {StatusResolved: true, StatusEscalated: true, StatusRejected: true},
	StatusEscalated:  {StatusInProgress: true, StatusRejected: true},
	StatusResolved:   {StatusClosed: true},
	StatusRejected:   {},
	StatusClosed:     {},
}

// ParseStatus returns the status for s, reporting whether it is known
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	_, ok := transitions[st]
	return st, ok
}

// CanTransition reports whether from → to is an edge of the lifecycle
func CanTransition(from, to Status) bool {
	return transitions[from][to]
}

// Terminal no further transitions are possible
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// InFlight the complaint counts toward its assignee's workload
func (s Status) InFlight() bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusEscalated
}

// Escalatable the SLA engine may move the complaint up a level. An escalated
// complaint waits for its new owner to pick it up before it can climb again.
func (s Status) Escalatable() bool {
	return s == StatusAssigned || s == StatusInProgress
}

// EscalatableStatuses states the SLA sweep considers
var EscalatableStatuses = []Status{StatusAssigned, StatusInProgress}

// InFlightStatuses states that count toward an assignee's workload
var InFlightStatuses = []Status{StatusAssigned, StatusInProgress, StatusEscalated}

// ── Rank ──

// Rank position of a staff member in the department authority ladder.
// Rank N is the authority for escalation level N; Assistant handles new complaints.
type Rank int

const (
	RankAssistant Rank = iota
	RankSupervisor
	RankManager
	RankDirector
)

// MaxEscalationLevel highest escalation level; complaints there need manual handling
const MaxEscalationLevel = 3

var rankLabels = [...]string{"Assistant", "Supervisor", "Manager", "Director"}

func (r Rank) String() string {
	if r < RankAssistant || r > RankDirector {
		return "Unknown"
	}
	return rankLabels[r]
}

// ParseRank accepts the label (case-insensitive)
func ParseRank(s string) (Rank, bool) {
	for i, l := range rankLabels {
		if strings.EqualFold(l, strings.TrimSpace(s)) {
			return Rank(i), true
		}
	}
	return 0, false
}

// RankForLevel authority rank that owns complaints at the given escalation level
func RankForLevel(level int) (Rank, bool) {
	if level < 0 || level > MaxEscalationLevel {
		return 0, false
	}
	return Rank(level), true
}
