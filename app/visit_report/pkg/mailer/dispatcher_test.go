package mailer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iWorld-y/visit_report/app/visit_report/pkg/config"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*Message
	fail map[string]bool
}

func (f *fakeSender) Send(_ context.Context, msg *Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(msg.To) == 1 && f.fail[msg.To[0]] {
		return errors.New("mailbox unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestDispatcher(sender Sender, now time.Time) *Dispatcher {
	log, _ := test.NewNullLogger()
	d := NewDispatcher(sender, config.MailConfig{SignatureName: "Alberto Castro", SignatureOrg: "UGT"}, time.UTC, log)
	d.now = func() time.Time { return now }
	return d
}

func TestBuildPlan(t *testing.T) {
	plan := BuildPlan(
		[]string{"ana@ugt.org", "", "ANA@ugt.org"},
		[]string{"jefe@obra.es", "Ana@UGT.org", "fijo@ugt.org", "jefe@obra.es", "otro@obra.es"},
		[]string{" fijo@ugt.org "},
	)
	assert.Equal(t, []string{"ana@ugt.org", "fijo@ugt.org"}, plan.Group)
	assert.Equal(t, []string{"jefe@obra.es", "otro@obra.es"}, plan.Individuals)
}

func TestGreetingAndSubject(t *testing.T) {
	assert.Equal(t, "Buenos días", Greeting(time.Date(2025, 3, 3, 11, 59, 0, 0, time.UTC)))
	assert.Equal(t, "Buenas tardes", Greeting(time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)))
	assert.Equal(t, "Informe de Visita a Obra: Norte SL", Subject("Norte SL"))
}

func TestBody(t *testing.T) {
	d := newTestDispatcher(&fakeSender{}, time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC))

	htmlBody, textBody, err := d.Body("Andamios sin barandilla.\n\nExtintores caducados.")
	require.NoError(t, err)
	assert.Contains(t, htmlBody, "<p>Buenos días,</p>")
	assert.Contains(t, htmlBody, "<p>Andamios sin barandilla.</p>")
	assert.Contains(t, htmlBody, "<p>Extintores caducados.</p>")
	assert.Contains(t, htmlBody, "<strong>Alberto Castro</strong><br>UGT")
	assert.Contains(t, textBody, "Buenos días,")
	assert.Contains(t, textBody, "**Alberto Castro**")
	assert.NotContains(t, textBody, "<p>")

	htmlBody, _, err = d.Body("")
	require.NoError(t, err)
	assert.NotContains(t, htmlBody, "Resumen")
}

func TestDispatch(t *testing.T) {
	sender := &fakeSender{fail: map[string]bool{"roto@obra.es": true}}
	d := newTestDispatcher(sender, time.Date(2025, 3, 3, 17, 0, 0, 0, time.UTC))

	plan := Plan{
		Group:       []string{"ana@ugt.org", "fijo@ugt.org"},
		Individuals: []string{"roto@obra.es", "jefe@obra.es"},
	}
	out, err := d.Dispatch(context.Background(), plan, Report{
		Company:  "Norte SL",
		FileName: "Informe Visita - Norte SL - 2025-03-03.html",
		Document: []byte("<html></html>"),
	})
	require.NoError(t, err)

	assert.True(t, out.GroupSent)
	assert.Equal(t, []string{"ana@ugt.org", "fijo@ugt.org", "jefe@obra.es"}, out.Sent)
	assert.Equal(t, []string{"roto@obra.es"}, out.Failed)

	require.Len(t, sender.sent, 2)
	group := sender.sent[0]
	assert.Equal(t, plan.Group, group.To)
	assert.Equal(t, "Informe de Visita a Obra: Norte SL", group.Subject)
	assert.Contains(t, group.HTML, "Buenas tardes")
	require.NotNil(t, group.Attachment)
	assert.Equal(t, "Informe Visita - Norte SL - 2025-03-03.html", group.Attachment.Name)
	assert.Equal(t, []string{"jefe@obra.es"}, sender.sent[1].To)
}

func TestDispatchGroupFailureAborts(t *testing.T) {
	sender := &fakeSender{}
	failing := senderFunc(func(context.Context, *Message) error { return errors.New("relay down") })
	d := newTestDispatcher(failing, time.Now())

	out, err := d.Dispatch(context.Background(), Plan{Group: []string{"a@b.es"}, Individuals: []string{"c@d.es"}}, Report{Company: "X"})
	require.Error(t, err)
	assert.False(t, out.GroupSent)
	assert.Empty(t, out.Sent)
	assert.Empty(t, sender.sent)
}

type senderFunc func(ctx context.Context, msg *Message) error

func (f senderFunc) Send(ctx context.Context, msg *Message) error { return f(ctx, msg) }
