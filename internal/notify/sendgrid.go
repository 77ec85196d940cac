package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"
)

const sendGridEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Email is one rendered message.
type Email struct {
	To      string
	Subject string
	HTML    string
}

// SendGridSender renders notifications into emails and posts them to SendGrid.
type SendGridSender struct {
	apiKey         string
	endpoint       string
	from           sgEmail
	client         *http.Client
	adminRecipient func(ctx context.Context) string
}

// NewSendGridSender creates a sender. adminRecipient resolves the office inbox per message.
func NewSendGridSender(apiKey, fromEmail string, adminRecipient func(ctx context.Context) string) *SendGridSender {
	return &SendGridSender{
		apiKey:         apiKey,
		endpoint:       sendGridEndpoint,
		from:           sgEmail{Email: fromEmail, Name: "Agile Coach"},
		client:         &http.Client{Timeout: 15 * time.Second},
		adminRecipient: adminRecipient,
	}
}

// WithEndpoint points the sender at another API base, used by tests.
func (s *SendGridSender) WithEndpoint(endpoint string) *SendGridSender {
	s.endpoint = endpoint
	return s
}

// SendGrid request format
type sgEmail struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}
type sgPersonalization struct {
	To []sgEmail `json:"to"`
}
type sgRequest struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgEmail             `json:"from"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// Send implements Sender.
func (s *SendGridSender) Send(ctx context.Context, msg Message) error {
	admin := ""
	if s.adminRecipient != nil {
		admin = s.adminRecipient(ctx)
	}
	emails, err := Compose(msg, admin)
	if err != nil {
		return err
	}
	for _, email := range emails {
		if err := s.post(ctx, email); err != nil {
			return err
		}
	}
	return nil
}

func (s *SendGridSender) post(ctx context.Context, email Email) error {
	body, err := json.Marshal(sgRequest{
		Personalizations: []sgPersonalization{{To: []sgEmail{{Email: email.To}}}},
		From:             s.from,
		Subject:          email.Subject,
		Content:          []sgContent{{Type: "text/html", Value: email.HTML}},
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// SendGrid answers 202 on success.
	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sendgrid error: status=%d body=%s", resp.StatusCode, respBody)
	}
	return nil
}

var mailTemplates = template.Must(template.New("mail").Parse(`
{{define "registration"}}<p>New registration for <strong>{{.CourseTitle}}</strong>.</p>
<p>{{.Registration.FirstName}} {{.Registration.LastName}} &lt;{{.Registration.Email}}&gt;{{if .Registration.Company}}, {{.Registration.Company}}{{end}}</p>
{{if .Registration.SpecialRequests}}<p>Special requests: {{.Registration.SpecialRequests}}</p>{{end}}
<p>Reference: {{.RegistrationID}}</p>{{end}}
{{define "registration-confirmation"}}<p>Hello {{.Registration.FirstName}},</p>
<p>we received your registration for <strong>{{.CourseTitle}}</strong>. We will confirm your seat shortly.</p>
<p>Reference: {{.RegistrationID}}</p>{{end}}
{{define "group"}}<p>New group registration for <strong>{{.CourseTitle}}</strong> from {{.GroupRegistration.Company}}.</p>
<p>Contact: {{.GroupRegistration.Contact.Name}} &lt;{{.GroupRegistration.Contact.Email}}&gt;</p>
<ul>{{range .GroupRegistration.Participants}}<li>{{.FirstName}} {{.LastName}} &lt;{{.Email}}&gt;</li>{{end}}</ul>{{end}}
{{define "group-confirmation"}}<p>Hello {{.GroupRegistration.Contact.Name}},</p>
<p>we received the registration of {{len .GroupRegistration.Participants}} participants from {{.GroupRegistration.Company}} for <strong>{{.CourseTitle}}</strong>.</p>{{end}}
{{define "confirm"}}<p>Please confirm your email address:</p><p><a href="{{.Link}}">Confirm email</a></p>{{end}}
{{define "reset"}}<p>You requested a password reset.</p><p><a href="{{.Link}}">Choose a new password</a></p>
<p>If you did not request this, ignore this email.</p>{{end}}
`))

// Compose renders the emails a notification produces. Messages to an empty admin
// address are skipped.
func Compose(msg Message, adminEmail string) ([]Email, error) {
	var emails []Email
	add := func(to, subject, tmpl string, data interface{}) error {
		if strings.TrimSpace(to) == "" {
			return nil
		}
		var buf bytes.Buffer
		if err := mailTemplates.ExecuteTemplate(&buf, tmpl, data); err != nil {
			return fmt.Errorf("render %s: %w", tmpl, err)
		}
		emails = append(emails, Email{To: to, Subject: subject, HTML: buf.String()})
		return nil
	}

	switch msg.Function {
	case FunctionCourseRegistration:
		var p RegistrationPayload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			return nil, err
		}
		if err := add(adminEmail, "New registration: "+p.CourseTitle, "registration", p); err != nil {
			return nil, err
		}
		if err := add(p.Registration.Email, "Your registration for "+p.CourseTitle, "registration-confirmation", p); err != nil {
			return nil, err
		}
	case FunctionGroupRegistration:
		var p GroupRegistrationPayload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			return nil, err
		}
		if err := add(adminEmail, "New group registration: "+p.CourseTitle, "group", p); err != nil {
			return nil, err
		}
		if err := add(p.GroupRegistration.Contact.Email, "Your group registration for "+p.CourseTitle, "group-confirmation", p); err != nil {
			return nil, err
		}
	case FunctionConfirmEmail:
		var p LinkPayload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			return nil, err
		}
		if err := add(p.Email, "Confirm your email address", "confirm", p); err != nil {
			return nil, err
		}
	case FunctionPasswordReset:
		var p LinkPayload
		if err := json.Unmarshal(msg.Body, &p); err != nil {
			return nil, err
		}
		if err := add(p.Email, "Reset your password", "reset", p); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown notification function %q", msg.Function)
	}
	return emails, nil
}
