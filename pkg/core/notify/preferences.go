package notify

import "github.com/jakechorley/church-ops/pkg/db"

// PreferenceKey names a notification type in a profile's preference record
type PreferenceKey string

const (
	KeyInvitationReceived PreferenceKey = "invitation_received"
	KeyVolunteerAccepted  PreferenceKey = "volunteer_accepted"
	KeyVolunteerDeclined  PreferenceKey = "volunteer_declined"
)

// Channel is a delivery channel
type Channel string

const (
	ChannelInApp Channel = "in_app"
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
)

// ShouldNotify reports whether the preference record allows delivery of key on channel.
// Unset keys and unset channels default to enabled.
func ShouldNotify(prefs db.NotificationPreferences, key PreferenceKey, channel Channel) bool {
	pref, ok := prefs[string(key)]
	if !ok {
		return true
	}

	var toggle *bool
	switch channel {
	case ChannelInApp:
		toggle = pref.InApp
	case ChannelEmail:
		toggle = pref.Email
	case ChannelPush:
		toggle = pref.Push
	default:
		return false
	}
	return toggle == nil || *toggle
}

// CanEmail reports whether a profile can be emailed for key: the global email switch,
// an address and the per-type email toggle must all allow it
func CanEmail(p *db.Profile, key PreferenceKey) bool {
	return p.ReceiveEmailNotifications && p.Email != "" && ShouldNotify(p.NotificationPreferences, key, ChannelEmail)
}

// ResponseKey returns the preference key for a volunteer's response
func ResponseKey(status db.AssignmentStatus) PreferenceKey {
	if status == db.StatusAccepted {
		return KeyVolunteerAccepted
	}
	return KeyVolunteerDeclined
}
