package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jakechorley/church-ops/pkg/core/services"
)

const (
	dateLayout          = "2006-01-02"
	defaultScheduleSpan = 28 * 24 * time.Hour
)

// SendInvitationsCmd creates the sendInvitations command
func SendInvitationsCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sendInvitations <event_id>",
		Short: "Invite everyone assigned on an event who has not been invited yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ministryID, _ := cmd.Flags().GetString("ministry")
			positionIDs, _ := cmd.Flags().GetStringSlice("positions")

			scope, err := eventScope(args[0], ministryID, positionIDs)
			if err != nil {
				return err
			}

			session, err := app.Session()
			if err != nil {
				return err
			}
			notifier, err := app.Notifier()
			if err != nil {
				return err
			}

			result, err := services.SendInvitations(app.Ctx, app.Database, notifier, session, app.Logger, scope)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Sent %d invitations\n\n", result.InvitedCount)
			return nil
		},
	}

	cmd.Flags().String("ministry", "", "Only invite assignments in this ministry")
	cmd.Flags().StringSlice("positions", nil, "Only invite assignments on these positions (comma separated)")
	return cmd
}

func eventScope(eventID, ministryID string, positionIDs []string) (services.Scope, error) {
	scope := services.Scope{EventID: eventID, Type: services.ScopeAll}
	switch {
	case ministryID != "" && len(positionIDs) > 0:
		return services.Scope{}, errors.New("--ministry and --positions cannot be combined")
	case ministryID != "":
		scope.Type = services.ScopeMinistry
		scope.MinistryID = ministryID
	case len(positionIDs) > 0:
		scope.Type = services.ScopePositions
		scope.PositionIDs = positionIDs
	}
	return scope, nil
}

// bulkFlags are the selection flags of sendBulkInvitations
type bulkFlags struct {
	events     []string
	dates      []string
	rrule      string
	schedule   bool
	from       string
	until      string
	selected   []string
	ministries []string
	positions  []string
}

// SendBulkInvitationsCmd creates the sendBulkInvitations command
func SendBulkInvitationsCmd(app *AppContext) *cobra.Command {
	var flags bulkFlags

	cmd := &cobra.Command{
		Use:   "sendBulkInvitations --events <id,...>",
		Short: "Invite pending assignments across several events",
		Long: `Invite pending assignments across several events.

At most one selection may be given:
  --dates         events on these dates
  --rrule         events on dates produced by the rule between --from and --until
  --schedule      like --rrule, using serviceSchedule from config
  --select        only these events
  --ministries    only these ministries
  --positions     only these positions

Without a selection every pending assignment on the events is invited.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.schedule {
				if app.Cfg.ServiceSchedule == "" {
					return errors.New("--schedule needs serviceSchedule in config")
				}
				flags.rrule = app.Cfg.ServiceSchedule
			}

			scope, err := flags.scope(time.Now().UTC())
			if err != nil {
				return err
			}

			session, err := app.Session()
			if err != nil {
				return err
			}
			notifier, err := app.Notifier()
			if err != nil {
				return err
			}

			result, err := services.SendBulkInvitations(app.Ctx, app.Database, notifier, session, app.Logger, scope)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Sent %d invitations across %d events\n\n", result.InvitedCount, len(scope.EventIDs))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&flags.events, "events", nil, "Events to consider (comma separated)")
	cmd.Flags().StringSliceVar(&flags.dates, "dates", nil, "Dates to invite, YYYY-MM-DD (comma separated)")
	cmd.Flags().StringVar(&flags.rrule, "rrule", "", "Recurrence rule producing the dates to invite")
	cmd.Flags().BoolVar(&flags.schedule, "schedule", false, "Use the configured service schedule as the rule")
	cmd.Flags().StringVar(&flags.from, "from", "", "First date for --rrule/--schedule (default today)")
	cmd.Flags().StringVar(&flags.until, "until", "", "Last date for --rrule/--schedule (default four weeks after --from)")
	cmd.Flags().StringSliceVar(&flags.selected, "select", nil, "Only these events (comma separated)")
	cmd.Flags().StringSliceVar(&flags.ministries, "ministries", nil, "Only these ministries (comma separated)")
	cmd.Flags().StringSliceVar(&flags.positions, "positions", nil, "Only these positions (comma separated)")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

// scope builds the bulk scope the flags describe; now is the default --from
func (f bulkFlags) scope(now time.Time) (services.BulkScope, error) {
	scope := services.BulkScope{EventIDs: f.events, Type: services.ScopeAll}

	set := 0
	for _, given := range []bool{len(f.dates) > 0, f.rrule != "", len(f.selected) > 0, len(f.ministries) > 0, len(f.positions) > 0} {
		if given {
			set++
		}
	}
	if set > 1 {
		return services.BulkScope{}, errors.New("only one of --dates, --rrule, --schedule, --select, --ministries or --positions may be given")
	}

	switch {
	case len(f.dates) > 0:
		scope.Type = services.ScopeDates
		scope.Dates = f.dates
	case f.rrule != "":
		dates, err := f.scheduleDates(now)
		if err != nil {
			return services.BulkScope{}, err
		}
		scope.Type = services.ScopeDates
		scope.Dates = dates
	case len(f.selected) > 0:
		scope.Type = services.ScopeEvents
		scope.SelectedEventIDs = f.selected
	case len(f.ministries) > 0:
		scope.Type = services.ScopeMinistries
		scope.MinistryIDs = f.ministries
	case len(f.positions) > 0:
		scope.Type = services.ScopePositions
		scope.PositionIDs = f.positions
	}
	return scope, nil
}

func (f bulkFlags) scheduleDates(now time.Time) ([]string, error) {
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if f.from != "" {
		parsed, err := time.Parse(dateLayout, f.from)
		if err != nil {
			return nil, fmt.Errorf("--from must be YYYY-MM-DD: %w", err)
		}
		from = parsed
	}

	until := from.Add(defaultScheduleSpan)
	if f.until != "" {
		parsed, err := time.Parse(dateLayout, f.until)
		if err != nil {
			return nil, fmt.Errorf("--until must be YYYY-MM-DD: %w", err)
		}
		until = parsed.Add(24*time.Hour - time.Second)
	}

	return services.ScheduleDates(f.rrule, from, until)
}
