package telegram

import (
	"fmt"
	"html"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"

	"ticketwatch/internal/model"
)

type Calendar string

const (
	CalendarGregorian Calendar = "gregorian"
	CalendarPersian   Calendar = "persian"
)

func ParseCalendar(value string) Calendar {
	if strings.EqualFold(strings.TrimSpace(value), string(CalendarPersian)) {
		return CalendarPersian
	}
	return CalendarGregorian
}

func formatListing(l model.Listing, calendar Calendar, at time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s vs %s</b>\n", html.EscapeString(l.HomeTeam), html.EscapeString(l.AwayTeam))
	fmt.Fprintf(&b, "🏟️ Venue: <i>%s</i>\n", html.EscapeString(l.Venue))
	fmt.Fprintf(&b, "📅 Date: <i>%s</i>\n", html.EscapeString(l.Date))
	fmt.Fprintf(&b, "🕒 Found: %s", formatTime(at, calendar))
	return b.String()
}

func formatQueueAlert(sourceURL string, calendar Calendar, at time.Time) string {
	return fmt.Sprintf("🚨 Queue detected on Ticketmaster! 🚨\nNew tickets may be releasing soon.\n%s\n🕒 %s",
		html.EscapeString(sourceURL), formatTime(at, calendar))
}

func formatTime(t time.Time, calendar Calendar) string {
	if calendar == CalendarPersian {
		return ptime.New(t).Format("yyyy/MM/dd HH:mm")
	}
	return t.Format("2006-01-02 15:04")
}

func splitMessage(message string, limit int) []string {
	runes := []rune(message)
	if len(runes) <= limit {
		return []string{message}
	}

	parts := []string{}
	for start := 0; start < len(runes); start += limit {
		end := start + limit
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
