package mailer

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
)

// SubjectPrefix leading part of every report subject
const SubjectPrefix = "Informe de Visita a Obra: "

var bodyTemplate = template.Must(template.New("body").Parse(`<p>{{.Greeting}},</p>
<br>
<p>Adjunto se remite el informe correspondiente a la última visita realizada a la obra.</p>
{{- if .Digest}}
<p><strong>Resumen de deficiencias:</strong></p>
{{- range .Digest}}
<p>{{.}}</p>
{{- end}}
{{- end}}
<br>
<p>Saludos cordiales,</p>
<br>
<p><strong>{{.SignatureName}}</strong><br>{{.SignatureOrg}}</p>
`))

// Report what gets mailed for one visit
type Report struct {
	Company  string
	FileName string
	Document []byte
	// Digest optional summary placed in the body
	Digest string
}

// Plan recipients of the group mail and of the individual mails
type Plan struct {
	Group       []string
	Individuals []string
}

// Outcome what was actually delivered
type Outcome struct {
	GroupSent bool
	Sent      []string
	Failed    []string
}

// BuildPlan sends one mail to the visitors plus the fixed recipients, and one
// mail to every other individual address. Addresses compare case-insensitively.
func BuildPlan(visitors, individuals, alwaysTo []string) Plan {
	seen := make(map[string]bool)
	var plan Plan
	for _, list := range [][]string{visitors, alwaysTo} {
		for _, addr := range list {
			key := strings.ToLower(strings.TrimSpace(addr))
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			plan.Group = append(plan.Group, strings.TrimSpace(addr))
		}
	}
	for _, addr := range individuals {
		key := strings.ToLower(strings.TrimSpace(addr))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		plan.Individuals = append(plan.Individuals, strings.TrimSpace(addr))
	}
	return plan
}

// Greeting "Buenos días" before noon, "Buenas tardes" afterwards
func Greeting(t time.Time) string {
	if t.Hour() < 12 {
		return "Buenos días"
	}
	return "Buenas tardes"
}

// Subject of the report mail for company
func Subject(company string) string {
	return SubjectPrefix + company
}

// Dispatcher sends a finished report to its recipients
type Dispatcher struct {
	sender    Sender
	cfg       config.MailConfig
	loc       *time.Location
	limiter   *rate.Limiter
	converter *md.Converter
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher, sending is paced by cfg.PerMinute
func NewDispatcher(sender Sender, cfg config.MailConfig, loc *time.Location, log logrus.FieldLogger) *Dispatcher {
	if loc == nil {
		loc = time.Local
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	limit := rate.Inf
	if cfg.PerMinute > 0 {
		limit = rate.Limit(float64(cfg.PerMinute) / 60.0)
	}
	return &Dispatcher{
		sender:    sender,
		cfg:       cfg,
		loc:       loc,
		limiter:   rate.NewLimiter(limit, 1),
		converter: md.NewConverter("", true, nil),
		log:       log,
		now:       time.Now,
	}
}

// Body renders the HTML body and its plain text alternative
func (d *Dispatcher) Body(digest string) (string, string, error) {
	var lines []string
	for _, l := range strings.Split(digest, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	var buf bytes.Buffer
	err := bodyTemplate.Execute(&buf, map[string]any{
		"Greeting":      Greeting(d.now().In(d.loc)),
		"Digest":        lines,
		"SignatureName": d.cfg.SignatureName,
		"SignatureOrg":  d.cfg.SignatureOrg,
	})
	if err != nil {
		return "", "", fmt.Errorf("render mail body: %w", err)
	}

	htmlBody := buf.String()
	textBody, err := d.converter.ConvertString(htmlBody)
	if err != nil {
		return "", "", fmt.Errorf("convert mail body: %w", err)
	}
	return htmlBody, textBody, nil
}

// Dispatch sends the group mail, then one mail per individual recipient.
// A failed group mail aborts, a failed individual mail is logged and skipped.
func (d *Dispatcher) Dispatch(ctx context.Context, plan Plan, report Report) (*Outcome, error) {
	htmlBody, textBody, err := d.Body(report.Digest)
	if err != nil {
		return nil, err
	}
	attachment := &Attachment{Name: report.FileName, ContentType: "text/html", Data: report.Document}
	newMessage := func(to []string) *Message {
		return &Message{
			To:         to,
			Subject:    Subject(report.Company),
			HTML:       htmlBody,
			Text:       textBody,
			Attachment: attachment,
		}
	}

	out := &Outcome{}
	if len(plan.Group) > 0 {
		if err := d.send(ctx, newMessage(plan.Group)); err != nil {
			return out, fmt.Errorf("group mail: %w", err)
		}
		out.GroupSent = true
		out.Sent = append(out.Sent, plan.Group...)
		d.log.WithField("to", strings.Join(plan.Group, ", ")).Info("group mail sent")
	} else {
		d.log.Info("no visitor recipients for the group mail")
	}

	for _, addr := range plan.Individuals {
		if err := d.send(ctx, newMessage([]string{addr})); err != nil {
			if ctx.Err() != nil {
				return out, ctx.Err()
			}
			d.log.WithError(err).WithField("to", addr).Error("individual mail failed")
			out.Failed = append(out.Failed, addr)
			continue
		}
		out.Sent = append(out.Sent, addr)
		d.log.WithField("to", addr).Info("individual mail sent")
	}
	return out, nil
}

func (d *Dispatcher) send(ctx context.Context, msg *Message) error {
	if err := d.limiter.Wait(ctx); err != nil {
		return err
	}
	return d.sender.Send(ctx, msg)
}
