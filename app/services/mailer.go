package services

import (
	"fmt"
	"html"
	"mime"
	"net/smtp"
	"strings"

	"github.com/rs/zerolog/log"
)

type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

// EmailSender is what background jobs need from a mailer.
type EmailSender interface {
	SendHTMLEmail(to, subject, htmlBody string) error
}

type Mailer struct {
	config Config
}

func NewMailer(cfg Config) *Mailer {
	return &Mailer{
		config: cfg,
	}
}

func (m *Mailer) Configured() bool {
	return m.config.Host != ""
}

func (m *Mailer) SendHTMLEmail(to, subject, htmlBody string) error {
	if !m.Configured() {
		log.Info().Str("to", to).Str("subject", subject).Msg("EMAIL_HOST not set, email not sent")
		return nil
	}

	msg := buildMessage(m.config.From, to, subject, htmlBody)

	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	addr := fmt.Sprintf("%s:%s", m.config.Host, m.config.Port)

	if err := smtp.SendMail(addr, auth, m.config.From, []string{to}, []byte(msg)); err != nil {
		log.Error().Err(err).Str("to", to).Msg("failed to send HTML email")
		return fmt.Errorf("send HTML email: %w", err)
	}

	return nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue flattens line breaks so user text cannot start a new header.
func headerValue(v string) string {
	return strings.TrimSpace(headerBreaks.Replace(v))
}

func buildMessage(from, to, subject, htmlBody string) string {
	headers := []string{
		"From: " + headerValue(from),
		"To: " + headerValue(to),
		"Subject: " + mime.QEncoding.Encode("utf-8", headerValue(subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + htmlBody
}

func BuildCommentEmailBody(postTitle, commenter, content, postURL string) string {
	return fmt.Sprintf(`
        <!DOCTYPE html>
        <html>
        <head>
            <meta charset="utf-8">
            <title>New comment on %[1]s</title>
            <style>
                body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
                .container { max-width: 600px; margin: 20px auto; padding: 20px; border: 1px solid #ddd; border-radius: 5px; }
                .comment { margin: 20px 0; padding: 10px; background-color: #f5f5f5; border-left: 3px solid #007bff; }
                .footer { font-size: 0.8em; color: #777; text-align: center; margin-top: 20px; border-top: 1px solid #ddd; padding-top: 10px; }
            </style>
        </head>
        <body>
            <div class="container">
                <h2>New comment on "%[1]s"</h2>
                <p>%[2]s wrote:</p>
                <div class="comment">%[3]s</div>
                <p><a href="%[4]s">View the post</a></p>
                <div class="footer">
                    <p>You receive this email because you wrote this post.</p>
                </div>
            </div>
        </body>
        </html>
    `, html.EscapeString(postTitle), html.EscapeString(commenter), html.EscapeString(content), html.EscapeString(postURL))
}
