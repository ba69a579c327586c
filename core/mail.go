package core

import (
	"bytes"
	"net/mail"
	"text/template"

	"github.com/pkg/errors"
)

var emailTemplates = map[string]*template.Template{
	"welcome": template.Must(template.New("welcome").Parse(
		`Hi {{.Name}},

Welcome to {{.AppName}}! Your account has been created.

You can sign in at {{.FrontendBaseURL}}/login with this email address.
`)),
	"password-reset": template.Must(template.New("password-reset").Parse(
		`Hi {{.Name}},

You requested a password reset. Follow this link to choose a new password:

{{.FrontendBaseURL}}/password-reset-confirm?uid={{.UID}}&token={{.Token}}

If you did not request this, you can safely ignore this email.
`)),
}

type (
	EmailMessage struct {
		To      []mail.Address
		Subject string
		BodyStr string // simple non-templated content

		// templated contents
		TemplateName string
		TemplateData interface{}
		TextContent  string
	}

	// EmailService is any service that can send emails.
	EmailService interface {
		// SendMessages sends messages concurrently
		SendMessages(messages ...*EmailMessage)
	}
)

// Render resolves the message content, executing the named template if any.
func (m *EmailMessage) Render() error {
	if m.BodyStr != "" {
		m.TextContent = m.BodyStr
		return nil
	}
	if m.TemplateName == "" {
		return nil
	}
	tmpl, ok := emailTemplates[m.TemplateName]
	if !ok {
		return errors.Errorf("unknown email template %q", m.TemplateName)
	}
	var buff bytes.Buffer
	if err := tmpl.Execute(&buff, m.TemplateData); err != nil {
		return errors.Wrap(err, "executing email template")
	}
	m.TextContent = buff.String()
	return nil
}

func (m *EmailMessage) HasRecipients() bool { return len(m.To) > 0 }

func (m *EmailMessage) HasContent() bool {
	return m.BodyStr != "" || m.TextContent != "" || m.TemplateName != ""
}
