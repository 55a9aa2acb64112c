package core

import (
	"net/mail"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loggerMock struct{ errors []string }

func (l *loggerMock) Debug(string, ...interface{}) {}
func (l *loggerMock) Info(string, ...interface{})  {}
func (l *loggerMock) Warn(string, ...interface{})  {}
func (l *loggerMock) Error(msg string, _ ...interface{}) {
	l.errors = append(l.errors, msg)
}
func (l *loggerMock) Fatal(string, ...interface{}) {}

var emailFS = fstest.MapFS{
	"email/_base.txt":      {Data: []byte("Hello,\n\n{{template \"content\" .}}\n")},
	"email/_base.gohtml":   {Data: []byte("<p>{{template \"content\" .}}</p>")},
	"email/welcome.txt":    {Data: []byte(`{{define "content"}}Welcome {{.Data.Name}}, see {{.FrontendBaseURL}}{{end}}`)},
	"email/welcome.gohtml": {Data: []byte(`{{define "content"}}Welcome <b>{{.Data.Name}}</b>{{end}}`)},
	"email/text_only.txt":  {Data: []byte(`{{define "content"}}Plain{{end}}`)},
	"email/broken.txt":     {Data: []byte(`{{define "content"}}{{.Data.Name{{end}}`)},
	"email/notes.md":       {Data: []byte("ignored")},
}

func TestEmailMessage_Render(t *testing.T) {
	logger := &loggerMock{}
	conf := &Config{FrontendBaseURL: "http://dash.test", TestMode: true}
	ParseEmailTemplates(conf, emailFS, "email", logger)
	require.Len(t, logger.errors, 1)
	assert.Contains(t, logger.errors[0], "broken.txt")

	to := []mail.Address{{Address: "ada@example.com"}}
	tests := []struct {
		name     string
		msg      EmailMessage
		wantText string
		wantHTML string
		wantErr  bool
	}{
		{
			name:     "text and html",
			msg:      EmailMessage{To: to, TemplateName: "welcome", TemplateData: map[string]string{"Name": "Ada & Co"}},
			wantText: "Hello,\n\nWelcome Ada & Co, see http://dash.test\n",
			wantHTML: "<p>Welcome <b>Ada &amp; Co</b></p>",
		},
		{
			name:     "text only",
			msg:      EmailMessage{To: to, TemplateName: "text_only"},
			wantText: "Hello,\n\nPlain\n",
		},
		{
			name:     "body string wins over text template",
			msg:      EmailMessage{To: to, BodyStr: "raw", TemplateName: "text_only"},
			wantText: "raw",
		},
		{
			name: "unknown template",
			msg:  EmailMessage{To: to, TemplateName: "nope"},
		},
		{
			name:    "missing key",
			msg:     EmailMessage{To: to, TemplateName: "welcome", TemplateData: map[string]string{}},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			err := msg.Render()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, msg.TextContent)
			assert.Equal(t, tt.wantHTML, msg.HTMLContent)
			assert.Equal(t, tt.wantText != "" || tt.wantHTML != "", msg.HasContent())
		})
	}
}
