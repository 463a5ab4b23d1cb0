package router

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"dormbot/internal/models"
	"dormbot/internal/service/directory"
)

const (
	notSpecified = "Not specified"
	notAssigned  = "Not assigned"
	dateLayout   = "January 2, 2006"
	phonePrefix  = "+63"
)

var printer = message.NewPrinter(language.English)

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return notSpecified
	}
	return t.UTC().Format(dateLayout)
}

// formatMoney renders an amount in pesos with thousands separators.
func formatMoney(amount float64) string {
	return printer.Sprintf("₱%.2f", amount)
}

// formatPhone prefixes local numbers with the country code.
func formatPhone(phone string) string {
	phone = strings.TrimSpace(phone)
	switch {
	case phone == "":
		return notSpecified
	case strings.HasPrefix(phone, "+"):
		return phone
	}
	return phonePrefix + strings.TrimPrefix(phone, "0")
}

func orNotSpecified(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func residentRoom(r directory.Resident) string {
	if r.Tenancy == nil || r.Tenancy.RoomNumber == "" {
		return notAssigned
	}
	return r.Tenancy.RoomNumber
}

func residentDates(r directory.Resident) (start, end string) {
	if r.Tenancy == nil {
		return notSpecified, notSpecified
	}
	return formatDate(r.Tenancy.StartDate), formatDate(r.Tenancy.EndDate)
}

func residentPayment(r directory.Resident) string {
	if r.Tenancy == nil {
		return notSpecified
	}
	return orNotSpecified(r.Tenancy.PaymentStatus)
}

// renderResidents answers a name or id lookup. Several matches are all
// listed so the reader picks one.
func renderResidents(residents []directory.Resident, describe string) string {
	switch len(residents) {
	case 0:
		return fmt.Sprintf("Sorry, I couldn't find anyone %s.", describe)
	case 1:
		return renderResident(residents[0])
	}

	lines := lo.Map(residents, func(r directory.Resident, _ int) string {
		start, end := residentDates(r)
		return fmt.Sprintf("(%s) %s, room %s, %s, %s, contract %s to %s, payment status %s",
			r.ID, r.FullName(), residentRoom(r), orNotSpecified(r.Email), formatPhone(r.Phone),
			start, end, residentPayment(r))
	})

	var b strings.Builder
	fmt.Fprintf(&b, "I found %d people %s:\n", len(residents), describe)
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\nLet me know which one you mean if you would like to know more.")
	return b.String()
}

func renderResident(r directory.Resident) string {
	start, end := residentDates(r)
	return strings.Join([]string{
		fmt.Sprintf("Here is what I found for %s:", r.FullName()),
		"Room: " + residentRoom(r),
		"Email: " + orNotSpecified(r.Email),
		"Phone: " + formatPhone(r.Phone),
		"Contract start: " + start,
		"Contract end: " + end,
		"Payment status: " + residentPayment(r),
	}, "\n")
}

func amenities(room models.Room) string {
	return strings.Join([]string{
		lo.Ternary(room.HasAircon, "aircon", "no aircon"),
		lo.Ternary(room.HasWifi, "WIFI", "no WIFI"),
		lo.Ternary(room.HasBathroom, "bathroom", "no bathroom"),
	}, ", ")
}

func renderRoom(room models.Room, tenants []directory.TenancyDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Room %s has a capacity of %d with %d currently occupied. The monthly price is %s. Amenities: %s.",
		room.RoomNumber, room.Capacity, room.Occupancy, formatMoney(room.Price), amenities(room))

	if len(tenants) == 0 {
		b.WriteString("\nNo people currently live here.")
		return b.String()
	}

	b.WriteString("\nCurrent tenants:")
	for _, t := range tenants {
		fmt.Fprintf(&b, "\n- %s: rent %s, contract %s to %s, payment status %s",
			t.TenantName(), formatMoney(t.Rent), formatDate(t.StartDate), formatDate(t.EndDate),
			orNotSpecified(t.PaymentStatus))
	}
	return b.String()
}
