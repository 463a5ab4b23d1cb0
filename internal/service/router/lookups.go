package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"dormbot/internal/models"
	"dormbot/internal/service/directory"
)

func (r *Router) byFullName(ctx context.Context, s entitySet) (string, error) {
	first, last := s[models.EntityFirstName], s[models.EntityLastName]
	users, err := r.dir.FindUsersByName(ctx, first, last)
	if err != nil {
		return "", err
	}
	return renderResidents(users, "named "+first+" "+last), nil
}

func (r *Router) byFirstName(ctx context.Context, s entitySet) (string, error) {
	first := s[models.EntityFirstName]
	users, err := r.dir.FindUsersByName(ctx, first, "")
	if err != nil {
		return "", err
	}
	return renderResidents(users, "with the first name "+first), nil
}

func (r *Router) byLastName(ctx context.Context, s entitySet) (string, error) {
	last := s[models.EntityLastName]
	users, err := r.dir.FindUsersByName(ctx, "", last)
	if err != nil {
		return "", err
	}
	return renderResidents(users, "with the last name "+last), nil
}

func (r *Router) byIdentifier(ctx context.Context, s entitySet) (string, error) {
	id := s[models.EntityIdentifier]
	user, err := r.dir.GetUser(ctx, id)
	if errors.Is(err, directory.ErrNotFound) {
		return renderResidents(nil, "with the ID "+id), nil
	}
	if err != nil {
		return "", err
	}
	return renderResident(*user), nil
}

func (r *Router) byRoomNumber(ctx context.Context, s entitySet) (string, error) {
	number := s[models.EntityRoomNumber]
	rooms, err := r.dir.FindRoomsByNumber(ctx, number)
	if err != nil {
		return "", err
	}
	// Room numbers are unique in practice; duplicates are reported as not found.
	if len(rooms) != 1 {
		return fmt.Sprintf("Sorry, I couldn't find room %s.", number), nil
	}
	tenants, err := r.dir.CurrentTenants(ctx, rooms[0].ID)
	if err != nil {
		return "", err
	}
	return renderRoom(rooms[0], tenants), nil
}

func (r *Router) byDate(ctx context.Context, field directory.DateField, value string) (string, error) {
	verb := "starting"
	if field == directory.EndDate {
		verb = "ending"
	}
	notFound := fmt.Sprintf("Sorry, I couldn't find a tenancy %s on %s.", verb, value)

	day, ok := parseDate(value)
	if !ok {
		return notFound, nil
	}
	t, err := r.dir.FindTenancyByDate(ctx, field, day)
	if errors.Is(err, directory.ErrNotFound) {
		return notFound, nil
	}
	if err != nil {
		return "", err
	}
	if field == directory.EndDate {
		return fmt.Sprintf("%s's tenancy in room %s ends on %s.", t.TenantName(), t.RoomNumber, formatDate(t.EndDate)), nil
	}
	return fmt.Sprintf("%s's tenancy in room %s starts on %s.", t.TenantName(), t.RoomNumber, formatDate(t.StartDate)), nil
}

func (r *Router) byStatus(ctx context.Context, s entitySet) (string, error) {
	status := s[models.EntityStatus]
	t, err := r.dir.FindTenancyByStatus(ctx, status)
	if errors.Is(err, directory.ErrNotFound) {
		return fmt.Sprintf("Sorry, I couldn't find a tenancy with the payment status %s.", status), nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s's tenancy in room %s has the payment status %s.", t.TenantName(), t.RoomNumber, t.PaymentStatus), nil
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"January 2, 2006",
	"January 2 2006",
	"Jan 2, 2006",
	"Jan 2 2006",
	"2 January 2006",
	"01/02/2006",
	"2006/01/02",
}

// parseDate reads the date formats the NLU emits and returns UTC midnight.
func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}
