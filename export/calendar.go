package export

import (
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/npillmayer/manifest/dom"
)

// DefaultCalendarName is the calendar name used if none is given.
const DefaultCalendarName = "Manifest Tasks"

const uidDomain = "@manifestmanager"

// CalendarOptions control the calendar header and time stamps.
type CalendarOptions struct {
	Name     string           // X-WR-CALNAME
	Timezone string           // X-WR-TIMEZONE, omitted if empty
	Now      func() time.Time // clock for DTSTAMP, defaults to time.Now
}

// Event is a calendar entry for an element with a due date. Events are
// all-day events on the due date.
type Event struct {
	UID         string
	Summary     string
	Description []string // lines
	Due         time.Time
	Status      string // iCalendar status, empty for none
	Priority    int    // 0 for undefined
	Categories  []string
}

var icalStatus = map[string]string{
	"done":      "COMPLETED",
	"active":    "IN-PROCESS",
	"pending":   "NEEDS-ACTION",
	"blocked":   "NEEDS-ACTION",
	"cancelled": "CANCELLED",
}

// EventOf derives an event from an element. Elements without a due
// attribute, or with a due date not of the form YYYY-MM-DD, do not produce
// an event.
func EventOf(e *dom.Element) (Event, bool) {
	due, ok := e.Attr("due")
	if !ok {
		return Event{}, false
	}
	date, err := time.Parse(dom.DateLayout, due)
	if err != nil {
		tracer().Debugf("skipping %s: bad due date %q", e, due)
		return Event{}, false
	}
	ev := Event{Due: date, Summary: attrOr(e, "topic", e.Tag())}
	if id, ok := e.ID(); ok {
		ev.UID = id + uidDomain
	} else {
		ev.UID = ev.Summary + "-" + due + uidDomain
	}
	if text := e.Text().WithDefault(""); text != "" {
		ev.Description = append(ev.Description, text)
	}
	status, _ := e.Attr("status")
	if status != "" {
		ev.Description = append(ev.Description, "Status: "+status)
		ev.Status = icalStatus[strings.ToLower(status)]
		if ev.Status == "" {
			ev.Status = "NEEDS-ACTION"
		}
	}
	switch status {
	case "active":
		ev.Priority = 1
	case "pending":
		ev.Priority = 5
	}
	if resp, ok := e.Attr("resp"); ok && resp != "" {
		ev.Description = append(ev.Description, "Assigned to: "+resp)
	}
	if p := e.ParentElement(); p != nil && p.ParentElement() != nil {
		project := attrOr(p, "topic", p.Tag())
		ev.Description = append(ev.Description, "Project: "+project)
		ev.Categories = append(ev.Categories, project)
	}
	ev.Categories = append(ev.Categories, e.Tag())
	return ev, true
}

func attrOr(e *dom.Element, key, dflt string) string {
	if v, ok := e.Attr(key); ok && v != "" {
		return v
	}
	return dflt
}

// WriteCalendar writes an iCalendar file with an event for each element
// carrying a due date. It returns the number of events written.
func WriteCalendar(w io.Writer, elements []*dom.Element, opts CalendarOptions) (int, error) {
	name := opts.Name
	if name == "" {
		name = DefaultCalendarName
	}
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	stamp := now().UTC().Format("20060102T150405Z")
	c := &icsWriter{}
	c.line("BEGIN:VCALENDAR")
	c.line("VERSION:2.0")
	c.line("PRODID:-//Manifest Manager//Task Export//EN")
	c.line("X-WR-CALNAME:" + escapeText(name))
	if opts.Timezone != "" {
		c.line("X-WR-TIMEZONE:" + opts.Timezone)
	}
	c.line("CALSCALE:GREGORIAN")
	c.line("METHOD:PUBLISH")
	count := 0
	for _, e := range elements {
		ev, ok := EventOf(e)
		if !ok {
			continue
		}
		c.event(ev, stamp)
		count++
	}
	c.line("END:VCALENDAR")
	if _, err := io.WriteString(w, c.b.String()); err != nil {
		return 0, err
	}
	tracer().Infof("exported %d calendar event(s)", count)
	return count, nil
}

type icsWriter struct {
	b strings.Builder
}

func (c *icsWriter) event(ev Event, stamp string) {
	c.line("BEGIN:VEVENT")
	c.line("UID:" + ev.UID)
	c.line("DTSTAMP:" + stamp)
	c.line("DTSTART;VALUE=DATE:" + ev.Due.Format("20060102"))
	c.line("SUMMARY:" + escapeText(ev.Summary))
	if len(ev.Description) > 0 {
		c.line("DESCRIPTION:" + escapeText(strings.Join(ev.Description, "\n")))
	}
	if ev.Status != "" {
		c.line("STATUS:" + ev.Status)
	}
	if ev.Priority > 0 {
		c.line("PRIORITY:" + strconv.Itoa(ev.Priority))
	}
	if len(ev.Categories) > 0 {
		cats := make([]string, len(ev.Categories))
		for i, cat := range ev.Categories {
			cats[i] = escapeText(cat)
		}
		c.line("CATEGORIES:" + strings.Join(cats, ","))
	}
	c.line("END:VEVENT")
}

// maxLineOctets is the line length limit of content lines, excluding CRLF.
const maxLineOctets = 75

// line writes a content line, folded at maxLineOctets without splitting
// UTF-8 sequences.
func (c *icsWriter) line(s string) {
	limit := maxLineOctets
	for len(s) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		c.b.WriteString(s[:cut])
		c.b.WriteString("\r\n ")
		s = s[cut:]
		limit = maxLineOctets - 1 // continuation lines start with a space
	}
	c.b.WriteString(s)
	c.b.WriteString("\r\n")
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`, "\r", "")

func escapeText(s string) string {
	return textEscaper.Replace(s)
}
