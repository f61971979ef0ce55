/*
templates.go - Message builders

PURPOSE:
  Renders the recurring notification messages. Each builder returns a
  complete Message triple; the tasks decide who receives it and when.
  Plain-text and HTML bodies are rendered from parallel templates so the
  two never drift apart structurally.
*/
package notify

import (
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/paulbulman/Parking-sub001/calendar"
)

const summaryText = `Hi {{.Name}},

{{if .Allocated}}You have a parking space on:
{{range .Allocated}}  - {{.}}
{{end}}{{end}}{{if .Interrupted}}You do NOT have a space on:
{{range .Interrupted}}  - {{.}}
{{end}}
If someone cancels, spaces are reallocated automatically and you will be notified.
{{end}}`

const summaryHTML = `<p>Hi {{.Name}},</p>
{{if .Allocated}}<p>You have a parking space on:</p><ul>
{{range .Allocated}}<li>{{.}}</li>{{end}}</ul>{{end}}
{{if .Interrupted}}<p>You do <strong>not</strong> have a space on:</p><ul>
{{range .Interrupted}}<li>{{.}}</li>{{end}}</ul>
<p>If someone cancels, spaces are reallocated automatically and you will be notified.</p>{{end}}`

const reminderText = `Hi {{.Name}},

You have no parking requests between {{.First}} and {{.Last}}.
If you need a space, submit your requests before the weekly allocation runs.
`

const reminderHTML = `<p>Hi {{.Name}},</p>
<p>You have no parking requests between <strong>{{.First}}</strong> and <strong>{{.Last}}</strong>.</p>
<p>If you need a space, submit your requests before the weekly allocation runs.</p>`

const reservationText = `Hi {{.Name}},

No reservations have been entered for {{.Date}}.
Please enter any needed reservations before the 11:00 release.
`

const reservationHTML = `<p>Hi {{.Name}},</p>
<p>No reservations have been entered for <strong>{{.Date}}</strong>.</p>
<p>Please enter any needed reservations before the 11:00 release.</p>`

var (
	summaryTextTmpl     = texttemplate.Must(texttemplate.New("summary").Parse(summaryText))
	summaryHTMLTmpl     = htmltemplate.Must(htmltemplate.New("summary").Parse(summaryHTML))
	reminderTextTmpl    = texttemplate.Must(texttemplate.New("reminder").Parse(reminderText))
	reminderHTMLTmpl    = htmltemplate.Must(htmltemplate.New("reminder").Parse(reminderHTML))
	reservationTextTmpl = texttemplate.Must(texttemplate.New("reservation").Parse(reservationText))
	reservationHTMLTmpl = htmltemplate.Must(htmltemplate.New("reservation").Parse(reservationHTML))
)

type summaryData struct {
	Name        string
	Allocated   []calendar.Date
	Interrupted []calendar.Date
}

// DailySummary is the per-user outcome message for the short-lead dates.
func DailySummary(name string, allocated, interrupted []calendar.Date) (Message, error) {
	return renderSummary("Parking status for the next working day", name, allocated, interrupted)
}

// WeeklySummary is the per-user outcome message for the long-lead window.
func WeeklySummary(name string, allocated, interrupted []calendar.Date) (Message, error) {
	return renderSummary("Weekly parking summary", name, allocated, interrupted)
}

func renderSummary(subject, name string, allocated, interrupted []calendar.Date) (Message, error) {
	data := summaryData{Name: name, Allocated: allocated, Interrupted: interrupted}

	var text, html strings.Builder
	if err := summaryTextTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render summary text: %w", err)
	}
	if err := summaryHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render summary html: %w", err)
	}
	return Message{Subject: subject, PlainText: text.String(), HTML: html.String()}, nil
}

// RequestReminder nudges a user with no live requests in the upcoming
// window.
func RequestReminder(name string, first, last calendar.Date) (Message, error) {
	data := struct {
		Name        string
		First, Last calendar.Date
	}{name, first, last}

	var text, html strings.Builder
	if err := reminderTextTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reminder text: %w", err)
	}
	if err := reminderHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reminder html: %w", err)
	}
	return Message{
		Subject:   "No parking requests entered for " + first.String() + " onwards",
		PlainText: text.String(),
		HTML:      html.String(),
	}, nil
}

// ReservationReminder nudges a team leader when no reservations exist for
// the next working day.
func ReservationReminder(name string, date calendar.Date) (Message, error) {
	data := struct {
		Name string
		Date calendar.Date
	}{name, date}

	var text, html strings.Builder
	if err := reservationTextTmpl.Execute(&text, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reservation text: %w", err)
	}
	if err := reservationHTMLTmpl.Execute(&html, data); err != nil {
		return Message{}, fmt.Errorf("failed to render reservation html: %w", err)
	}
	return Message{
		Subject:   "No reservations entered for " + date.String(),
		PlainText: text.String(),
		HTML:      html.String(),
	}, nil
}
