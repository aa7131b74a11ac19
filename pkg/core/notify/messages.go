package notify

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/jakechorley/church-ops/pkg/db"
)

// ResponsePath is the public endpoint that handles accept/decline links in emails
const ResponsePath = "/invitations/respond"

// ResponseLink builds a one-time accept/decline link for an email token
func ResponseLink(baseURL, token, action string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("action", action)
	return strings.TrimRight(baseURL, "/") + ResponsePath + "?" + q.Encode()
}

// InvitationDetails describes one invitation for message rendering
type InvitationDetails struct {
	PositionTitle string
	MinistryName  string
	Event         db.Event
}

func (d InvitationDetails) when() string {
	return d.Event.StartTime.UTC().Format("Mon Jan 02 2006 at 15:04 UTC")
}

// InvitationTitle is the in-app title of a position invitation
func InvitationTitle(d InvitationDetails) string {
	return fmt.Sprintf("You've been invited to serve: %s", d.PositionTitle)
}

// InvitationMessage is the in-app body of a position invitation
func InvitationMessage(d InvitationDetails) string {
	if d.MinistryName != "" {
		return fmt.Sprintf("%s (%s) for %s on %s", d.PositionTitle, d.MinistryName, d.Event.Title, d.when())
	}
	return fmt.Sprintf("%s for %s on %s", d.PositionTitle, d.Event.Title, d.when())
}

// InvitationEmail renders the subject and body of an invitation email with response links
func InvitationEmail(recipient *db.Profile, d InvitationDetails, baseURL, token string) (string, string) {
	subject := fmt.Sprintf("Can you serve as %s at %s?", d.PositionTitle, d.Event.Title)

	var b strings.Builder
	fmt.Fprintf(&b, "Hi %s\n\n", recipient.FirstName)
	fmt.Fprintf(&b, "You've been asked to serve as %s", d.PositionTitle)
	if d.MinistryName != "" {
		fmt.Fprintf(&b, " with %s", d.MinistryName)
	}
	fmt.Fprintf(&b, " at %s on %s.\n", d.Event.Title, d.when())
	if d.Event.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", d.Event.Location)
	}
	fmt.Fprintf(&b, "\nAccept: %s\n", ResponseLink(baseURL, token, "accept"))
	fmt.Fprintf(&b, "Decline: %s\n", ResponseLink(baseURL, token, "decline"))
	b.WriteString("\nYou can change your answer later in the app.\n\nThanks\n")

	return subject, b.String()
}

// ResponseDetails describes a volunteer's response for message rendering
type ResponseDetails struct {
	VolunteerName string
	PositionTitle string
	Event         db.Event
	Status        db.AssignmentStatus
}

// ResponseTitle is the title of the notification sent to leaders about a response
func ResponseTitle(d ResponseDetails) string {
	if d.Status == db.StatusAccepted {
		return fmt.Sprintf("%s accepted %s", d.VolunteerName, d.PositionTitle)
	}
	return fmt.Sprintf("%s declined %s", d.VolunteerName, d.PositionTitle)
}

// ResponseMessage is the body of the notification sent to leaders about a response
func ResponseMessage(d ResponseDetails) string {
	return fmt.Sprintf("%s has %s the invitation to serve as %s at %s on %s.",
		d.VolunteerName, d.Status, d.PositionTitle, d.Event.Title,
		d.Event.StartTime.UTC().Format("Mon Jan 02 2006"))
}

// ResponseNotificationType maps a response to its notification type
func ResponseNotificationType(status db.AssignmentStatus) db.NotificationType {
	if status == db.StatusAccepted {
		return db.NotificationInvitationAccepted
	}
	return db.NotificationInvitationDeclined
}
