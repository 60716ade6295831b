// Package payload provides payload builders for the notification channels.
// Each builder switches exhaustively over the event variants.
package payload

import (
	"fmt"
	"strings"
	"time"

	"github.com/grantcue/grantcue/internal/events"
)

// Data carries the event-specific fields of an outbound webhook payload.
// Fields not applicable to the event kind are omitted.
type Data struct {
	GrantID        string `json:"grant_id,omitempty"`
	GrantTitle     string `json:"grant_title,omitempty"`
	GrantAgency    string `json:"grant_agency,omitempty"`
	GrantDeadline  string `json:"grant_deadline,omitempty"`
	TaskID         string `json:"task_id,omitempty"`
	TaskTitle      string `json:"task_title,omitempty"`
	AssignedToID   string `json:"assigned_to_id,omitempty"`
	AssignedToName string `json:"assigned_to_name,omitempty"`
	AlertID        string `json:"alert_id,omitempty"`
	AlertName      string `json:"alert_name,omitempty"`
	MatchesCount   int    `json:"matches_count,omitempty"`
	DaysLeft       int    `json:"days_left,omitempty"`
	ActionURL      string `json:"action_url"`
}

// WebhookPayload is the outbound webhook body.
type WebhookPayload struct {
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"`
	Data      Data   `json:"data"`
}

// BuildWebhookPayload builds the outbound webhook body for an event.
// appBaseURL is the front-end origin used for action links.
func BuildWebhookPayload(e events.Event, appBaseURL string) WebhookPayload {
	return WebhookPayload{
		Event:     string(e.Kind()),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data:      buildData(e, appBaseURL),
	}
}

func buildData(e events.Event, appBaseURL string) Data {
	switch ev := e.(type) {
	case events.GrantMatched:
		d := Data{
			AlertID:      ev.AlertID,
			AlertName:    ev.AlertName,
			MatchesCount: len(ev.Grants),
			ActionURL:    appBaseURL + "/alerts/" + ev.AlertID,
		}
		if len(ev.Grants) > 0 {
			g := ev.Grants[0]
			d.GrantID = g.ExternalID
			d.GrantTitle = g.Title
			d.GrantAgency = g.Agency
			d.GrantDeadline = formatDate(g.CloseDate)
		}
		return d
	case events.GrantSaved:
		return Data{
			GrantID:       ev.GrantID,
			GrantTitle:    ev.GrantTitle,
			GrantAgency:   ev.GrantAgency,
			GrantDeadline: formatDate(ev.GrantDeadline),
			ActionURL:     appBaseURL + "/grants/" + ev.GrantID,
		}
	case events.TaskAssigned:
		return Data{
			GrantID:        ev.GrantID,
			GrantTitle:     ev.GrantTitle,
			TaskID:         ev.TaskID,
			TaskTitle:      ev.TaskTitle,
			AssignedToID:   ev.AssignedToID,
			AssignedToName: ev.AssignedToName,
			ActionURL:      appBaseURL + "/grants/" + ev.GrantID + "/tasks",
		}
	case events.DeadlineApproaching:
		return Data{
			GrantID:       ev.GrantID,
			GrantTitle:    ev.GrantTitle,
			GrantAgency:   ev.GrantAgency,
			GrantDeadline: formatDate(ev.GrantDeadline),
			DaysLeft:      ev.DaysLeft,
			ActionURL:     appBaseURL + "/grants/" + ev.GrantID,
		}
	default:
		return Data{ActionURL: appBaseURL}
	}
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// EmailPayload represents email message content.
type EmailPayload struct {
	Subject string
	Body    string
}

// BuildEmailPayload builds email subject and body from an event.
func BuildEmailPayload(e events.Event, appBaseURL string) EmailPayload {
	switch ev := e.(type) {
	case events.GrantMatched:
		subject := fmt.Sprintf("GrantCue: %d new grant(s) match %q", len(ev.Grants), ev.AlertName)
		var sb strings.Builder
		sb.WriteString(fmt.Sprintf("Your alert %q matched %d new funding opportunit", ev.AlertName, len(ev.Grants)))
		if len(ev.Grants) == 1 {
			sb.WriteString("y:\n\n")
		} else {
			sb.WriteString("ies:\n\n")
		}
		for _, g := range ev.Grants {
			sb.WriteString(fmt.Sprintf("  - %s (%s)", g.Title, g.Agency))
			if g.CloseDate != nil {
				sb.WriteString(fmt.Sprintf(", closes %s", formatDate(g.CloseDate)))
			}
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("\nReview them at %s/alerts/%s\n", appBaseURL, ev.AlertID))
		return EmailPayload{Subject: subject, Body: sb.String()}
	case events.GrantSaved:
		return EmailPayload{
			Subject: fmt.Sprintf("GrantCue: %s saved %q", ev.SavedByName, ev.GrantTitle),
			Body: fmt.Sprintf("%s saved the grant %q (%s) to your organization's tracker.\n\nView it at %s/grants/%s\n",
				ev.SavedByName, ev.GrantTitle, ev.GrantAgency, appBaseURL, ev.GrantID),
		}
	case events.TaskAssigned:
		return EmailPayload{
			Subject: fmt.Sprintf("GrantCue: task assigned on %q", ev.GrantTitle),
			Body: fmt.Sprintf("The task %q on grant %q was assigned to %s.\n\nView it at %s/grants/%s/tasks\n",
				ev.TaskTitle, ev.GrantTitle, ev.AssignedToName, appBaseURL, ev.GrantID),
		}
	case events.DeadlineApproaching:
		return EmailPayload{
			Subject: fmt.Sprintf("GrantCue: %q closes in %d day(s)", ev.GrantTitle, ev.DaysLeft),
			Body: fmt.Sprintf("The grant %q (%s) closes on %s.\n\nView it at %s/grants/%s\n",
				ev.GrantTitle, ev.GrantAgency, formatDate(ev.GrantDeadline), appBaseURL, ev.GrantID),
		}
	default:
		return EmailPayload{Subject: "GrantCue notification", Body: "You have a new notification."}
	}
}

// SlackPayload represents a Slack webhook payload.
type SlackPayload struct {
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment represents a Slack message attachment.
type Attachment struct {
	Color  string  `json:"color,omitempty"`
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
}

// Field represents a field in a Slack attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// BuildSlackPayload builds a Slack webhook payload from an event.
func BuildSlackPayload(e events.Event, appBaseURL string) SlackPayload {
	title, text, fields := describe(e)
	return SlackPayload{
		Attachments: []Attachment{
			{
				Color:  "good",
				Title:  title,
				Text:   text + "\n<" + buildData(e, appBaseURL).ActionURL + "|Open in GrantCue>",
				Fields: fields,
			},
		},
	}
}

// TeamsPayload represents a Microsoft Teams MessageCard payload.
type TeamsPayload struct {
	Type       string        `json:"@type"`
	Context    string        `json:"@context"`
	ThemeColor string        `json:"themeColor"`
	Summary    string        `json:"summary"`
	Title      string        `json:"title"`
	Text       string        `json:"text"`
	Actions    []TeamsAction `json:"potentialAction,omitempty"`
}

// TeamsAction is an OpenUri action on a MessageCard.
type TeamsAction struct {
	Type    string        `json:"@type"`
	Name    string        `json:"name"`
	Targets []TeamsTarget `json:"targets"`
}

// TeamsTarget is a link target of a Teams action.
type TeamsTarget struct {
	OS  string `json:"os"`
	URI string `json:"uri"`
}

// BuildTeamsPayload builds a Teams MessageCard payload from an event.
func BuildTeamsPayload(e events.Event, appBaseURL string) TeamsPayload {
	title, text, _ := describe(e)
	return TeamsPayload{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: "2E7D32",
		Summary:    title,
		Title:      title,
		Text:       text,
		Actions: []TeamsAction{
			{
				Type: "OpenUri",
				Name: "Open in GrantCue",
				Targets: []TeamsTarget{
					{OS: "default", URI: buildData(e, appBaseURL).ActionURL},
				},
			},
		},
	}
}

// describe renders the human-readable title, text, and field list shared
// by the chat formatters.
func describe(e events.Event) (string, string, []Field) {
	switch ev := e.(type) {
	case events.GrantMatched:
		title := fmt.Sprintf("%d new grant(s) match alert %q", len(ev.Grants), ev.AlertName)
		var lines []string
		for _, g := range ev.Grants {
			line := fmt.Sprintf("%s (%s)", g.Title, g.Agency)
			if g.CloseDate != nil {
				line += ", closes " + formatDate(g.CloseDate)
			}
			lines = append(lines, line)
		}
		fields := []Field{
			{Title: "Alert", Value: ev.AlertName, Short: true},
			{Title: "New matches", Value: fmt.Sprintf("%d", len(ev.Grants)), Short: true},
		}
		return title, strings.Join(lines, "\n"), fields
	case events.GrantSaved:
		title := fmt.Sprintf("%s saved %q", ev.SavedByName, ev.GrantTitle)
		fields := []Field{
			{Title: "Grant", Value: ev.GrantTitle, Short: true},
			{Title: "Agency", Value: ev.GrantAgency, Short: true},
		}
		return title, fmt.Sprintf("%q was saved to the tracker.", ev.GrantTitle), fields
	case events.TaskAssigned:
		title := fmt.Sprintf("Task assigned on %q", ev.GrantTitle)
		fields := []Field{
			{Title: "Task", Value: ev.TaskTitle, Short: true},
			{Title: "Assigned to", Value: ev.AssignedToName, Short: true},
		}
		return title, fmt.Sprintf("%q was assigned to %s.", ev.TaskTitle, ev.AssignedToName), fields
	case events.DeadlineApproaching:
		title := fmt.Sprintf("%q closes in %d day(s)", ev.GrantTitle, ev.DaysLeft)
		fields := []Field{
			{Title: "Grant", Value: ev.GrantTitle, Short: true},
			{Title: "Closes", Value: formatDate(ev.GrantDeadline), Short: true},
		}
		return title, fmt.Sprintf("The deadline for %q (%s) is approaching.", ev.GrantTitle, ev.GrantAgency), fields
	default:
		return "GrantCue notification", "You have a new notification.", nil
	}
}
