package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogNotifier_Send(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	err := n.Send(context.Background(), Message{To: "a@example.com", Subject: "Reminder: Buy milk", Body: "Due on tomorrow"})
	require.NoError(t, err)

	entries := logs.FilterMessage("notification").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "a@example.com", fields["to"])
	assert.Equal(t, "Reminder: Buy milk", fields["subject"])

	assert.Error(t, n.Send(context.Background(), Message{Subject: "no recipient"}))
}

func TestNew(t *testing.T) {
	n, err := New(SMTPConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	n, err = New(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "noreply@example.com"}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &SMTPNotifier{}, n)
}

func TestBuildMessage(t *testing.T) {
	m, err := buildMessage("noreply@example.com", Message{To: "a@example.com", Subject: "Reminder: x", Body: "Due on y"})
	require.NoError(t, err)
	assert.NotNil(t, m)

	_, err = buildMessage("noreply@example.com", Message{To: "", Subject: "x"})
	assert.Error(t, err)

	_, err = buildMessage("not an address", Message{To: "a@example.com"})
	assert.Error(t, err)
}

func TestBuildMessage_HTMLAlternative(t *testing.T) {
	tests := []struct {
		name        string
		html        string
		contains    []string
		notContains []string
	}{
		{
			name:        "plain text only",
			html:        "",
			notContains: []string{"text/html"},
		},
		{
			name:        "keeps formatting",
			html:        "<p>Due <strong>soon</strong></p>",
			contains:    []string{"text/html", "<strong>soon</strong>"},
		},
		{
			name:        "drops scripts",
			html:        "<p>Buy milk</p><script>alert(1)</script>",
			contains:    []string{"text/html", "<p>Buy milk</p>"},
			notContains: []string{"<script>", "alert(1)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := buildMessage("noreply@example.com", Message{
				To:      "a@example.com",
				Subject: "Reminder",
				Body:    "Due soon",
				HTML:    tt.html,
			})
			require.NoError(t, err)

			var buf bytes.Buffer
			_, err = m.WriteTo(&buf)
			require.NoError(t, err)

			raw := buf.String()
			assert.Contains(t, raw, "Due soon")
			for _, s := range tt.contains {
				assert.Contains(t, raw, s)
			}
			for _, s := range tt.notContains {
				assert.NotContains(t, raw, s)
			}
		})
	}
}
