package service

import (
	"fmt"
	"time"

	"solveit/internal/model"
	"solveit/internal/notify"
)

// ── recipients ──

func studentRecipient(c *model.Complaint) notify.Recipient {
	return notify.Recipient{
		UserID: c.StudentID,
		Name:   c.StudentName,
		Email:  c.StudentEmail,
		Phone:  c.StudentPhone,
	}
}

func staffRecipient(s *model.StaffMember) notify.Recipient {
	r := notify.Recipient{Name: s.Name, Email: s.Email, Phone: s.Phone}
	if s.UserID != nil {
		r.UserID = *s.UserID
	}
	return r
}

// ── messages ──

func complaintData(c *model.Complaint) map[string]string {
	return map[string]string{
		"ticket_code":      c.TicketCode,
		"title":            c.Title,
		"category":         string(c.Category),
		"priority":         string(c.Priority),
		"status":           string(c.Status),
		"escalation_level": fmt.Sprint(c.EscalationLevel),
		"due_date":         c.DueDate.UTC().Format(time.RFC3339),
	}
}

func assignedMessage(c *model.Complaint, to *model.StaffMember) notify.Message {
	return notify.Message{
		Kind:        model.NotifyComplaintAssigned,
		To:          staffRecipient(to),
		ComplaintID: c.ComplaintID,
		Subject:     fmt.Sprintf("%s assigned to you", c.TicketCode),
		Body: fmt.Sprintf("%s (%s, %s priority) is now assigned to you.\nDue: %s",
			c.Title, c.Category, c.Priority, c.DueDate.UTC().Format(time.RFC1123)),
		Data: complaintData(c),
	}
}

func statusMessage(c *model.Complaint, note string) notify.Message {
	body := fmt.Sprintf("Your complaint %q is now %s.", c.Title, c.Status)
	if c.AssignedToName != "" {
		body += fmt.Sprintf("\nHandled by: %s", c.AssignedToName)
	}
	if note != "" {
		body += "\nNote: " + note
	}
	return notify.Message{
		Kind:        model.NotifyStatusUpdated,
		To:          studentRecipient(c),
		ComplaintID: c.ComplaintID,
		Subject:     fmt.Sprintf("%s: %s", c.TicketCode, c.Status),
		Body:        body,
		Data:        complaintData(c),
	}
}

func resolvedMessage(c *model.Complaint) notify.Message {
	return notify.Message{
		Kind:        model.NotifyComplaintResolved,
		To:          studentRecipient(c),
		ComplaintID: c.ComplaintID,
		Subject:     fmt.Sprintf("%s resolved", c.TicketCode),
		Body: fmt.Sprintf("Your complaint %q has been resolved.\nResolution: %s\nYou can now rate how it was handled.",
			c.Title, c.ResolutionNote),
		Data: complaintData(c),
	}
}

func ratedMessage(c *model.Complaint, to *model.StaffMember) notify.Message {
	return notify.Message{
		Kind:        model.NotifyComplaintRated,
		To:          staffRecipient(to),
		ComplaintID: c.ComplaintID,
		Subject:     fmt.Sprintf("%s rated %d/5", c.TicketCode, derefInt(c.Rating)),
		Body:        fmt.Sprintf("%s rated %q %d/5. %s", c.StudentName, c.Title, derefInt(c.Rating), c.RatingComment),
		Data:        complaintData(c),
	}
}

// escalatedMessage goes to the student and both staff members
func escalatedMessage(c *model.Complaint, to notify.Recipient, from, incoming string) notify.Message {
	body := fmt.Sprintf("%q passed its deadline and was escalated to level %d.\nNow handled by: %s",
		c.Title, c.EscalationLevel, incoming)
	if from != "" {
		body += fmt.Sprintf("\nPreviously: %s", from)
	}
	return notify.Message{
		Kind:        model.NotifyComplaintEscalated,
		To:          to,
		ComplaintID: c.ComplaintID,
		Subject:     fmt.Sprintf("%s escalated to level %d", c.TicketCode, c.EscalationLevel),
		Body:        body,
		Data:        complaintData(c),
	}
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
