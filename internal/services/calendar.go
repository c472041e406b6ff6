package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/citaflow/citabot-backend/internal/booking"
)

// CalendarService talks to the business's shared Google calendar. It is
// strictly optional: when credentials are absent the caller runs without
// a calendar and availability is decided by the database alone.
type CalendarService struct {
	svc *calendar.Service
}

// NewCalendarService builds the client from the OAuth credentials and
// refresh token stored on disk (GOOGLE_CREDENTIALS_FILE and
// GOOGLE_TOKEN_FILE). The refresh token was obtained out of band during
// onboarding; this service only consumes it.
func NewCalendarService(ctx context.Context) (*CalendarService, error) {
	credsPath := os.Getenv("GOOGLE_CREDENTIALS_FILE")
	tokenPath := os.Getenv("GOOGLE_TOKEN_FILE")
	if credsPath == "" || tokenPath == "" {
		return nil, fmt.Errorf("missing GOOGLE_CREDENTIALS_FILE or GOOGLE_TOKEN_FILE")
	}

	creds, err := os.ReadFile(credsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	oauthCfg, err := google.ConfigFromJSON(creds, calendar.CalendarScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		return nil, fmt.Errorf("read token: %w", err)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("calendar client: %w", err)
	}
	return &CalendarService{svc: svc}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	return tok, json.NewDecoder(f).Decode(tok)
}

// IsFree answers the freebusy question for one slot. Any error is
// surfaced to the availability resolver, which degrades open.
func (c *CalendarService) IsFree(ctx context.Context, calendarID string, start, end time.Time) (bool, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	resp, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: start.Format(time.RFC3339),
		TimeMax: end.Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return false, err
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return false, fmt.Errorf("calendar %q missing from freebusy response", calendarID)
	}
	if len(cal.Errors) > 0 {
		return false, fmt.Errorf("freebusy error for %q: %s", calendarID, cal.Errors[0].Reason)
	}
	return len(cal.Busy) == 0, nil
}

// CreateEvent inserts the confirmed appointment on the shared calendar
// and returns the event ID.
func (c *CalendarService) CreateEvent(ctx context.Context, calendarID string, ev booking.CalendarEvent) (string, error) {
	if calendarID == "" {
		calendarID = "primary"
	}
	event := &calendar.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &calendar.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.Start.Location().String(),
		},
		End: &calendar.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.End.Location().String(),
		},
	}
	for _, email := range ev.Attendees {
		event.Attendees = append(event.Attendees, &calendar.EventAttendee{Email: email})
	}

	created, err := c.svc.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		return "", err
	}
	return created.Id, nil
}
