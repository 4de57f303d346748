package core

import (
	"bytes"
	htmltmpl "html/template"
	"net/mail"
	"sync"
	texttmpl "text/template"
)

var (
	textTemplates *texttmpl.Template
	htmlTemplates *htmltmpl.Template
	tmplInit      sync.Once
)

// Email templates are compiled in; a template name selects both the text and
// the HTML variant. Data is wrapped in ContextData before execution.
const (
	textTemplateSrc = `
{{define "welcome"}}Hi {{.Data.Name}},

Welcome to {{.AppName}}! Your account is ready.

Sign in at {{.FrontendBaseURL}}/login to find a tutor or publish a course.{{end}}

{{define "password-reset"}}Hi {{.Data.Name}},

You requested a password reset. Follow the link below to choose a new password:

{{.FrontendBaseURL}}/password-reset/{{.Data.UID}}/{{.Data.Token}}

If you did not request this, you can safely ignore this email.{{end}}

{{define "session-status"}}Hi {{.Data.Name}},

Your tutoring session "{{.Data.Title}}" is now {{.Data.Status}}.

See the details at {{.FrontendBaseURL}}/sessions/{{.Data.ID}}.{{end}}
`

	htmlTemplateSrc = `
{{define "welcome"}}<p>Hi {{.Data.Name}},</p>
<p>Welcome to {{.AppName}}! Your account is ready.</p>
<p><a href="{{.FrontendBaseURL}}/login">Sign in</a> to find a tutor or publish a course.</p>{{end}}

{{define "password-reset"}}<p>Hi {{.Data.Name}},</p>
<p>You requested a password reset. Follow the link below to choose a new password:</p>
<p><a href="{{.FrontendBaseURL}}/password-reset/{{.Data.UID}}/{{.Data.Token}}">Reset password</a></p>
<p>If you did not request this, you can safely ignore this email.</p>{{end}}

{{define "session-status"}}<p>Hi {{.Data.Name}},</p>
<p>Your tutoring session &quot;{{.Data.Title}}&quot; is now <b>{{.Data.Status}}</b>.</p>
<p><a href="{{.FrontendBaseURL}}/sessions/{{.Data.ID}}">See the details</a>.</p>{{end}}
`
)

type (
	EmailMessage struct {
		To      []mail.Address
		Cc      []mail.Address
		Bcc     []mail.Address
		Subject string
		BodyStr string // simple text/plain, non-templated content

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
		HTMLContent  string
	}

	ContextData struct {
		AppName         string
		FrontendBaseURL string
		Data            interface{}
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

func (m *EmailMessage) getContextData() ContextData {
	return ContextData{
		AppName:         Conf.AppName,
		FrontendBaseURL: Conf.FrontendBaseURL,
		Data:            m.TemplateData,
	}
}

func (m *EmailMessage) renderText() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	} else if m.TemplateName == "" {
		return nil
	}

	var buff bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&buff, m.TemplateName, m.getContextData()); err != nil {
		return err
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) renderHTML() error {
	if m.TemplateName == "" {
		return nil
	}

	var buff bytes.Buffer
	if err := htmlTemplates.ExecuteTemplate(&buff, m.TemplateName, m.getContextData()); err != nil {
		return err
	}
	m.HTMLContent = buff.String()
	return nil
}

func (m *EmailMessage) Render() error {
	if m.TemplateName != "" {
		tmplInit.Do(parseEmailTemplates) // only execute once during first send
	}
	if err := m.renderText(); err != nil {
		return err
	}
	return m.renderHTML()
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }
func (m *EmailMessage) HasContent() bool    { return (m.TextContent != "") || (m.HTMLContent != "") }

func parseEmailTemplates() {
	textTemplates = texttmpl.Must(texttmpl.New("email").Parse(textTemplateSrc))
	htmlTemplates = htmltmpl.Must(htmltmpl.New("email").Parse(htmlTemplateSrc))
}
