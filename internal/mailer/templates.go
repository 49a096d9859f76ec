package mailer

import (
	"fmt"
	"html"
	"strings"
	"time"
)

// Email bodies are small hand-built HTML fragments sharing one wrapper, in
// the site's understated style.

func wrapper(content string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="margin:0;padding:0;font-family:Georgia,serif;background-color:#f5f1eb;">
<div style="max-width:600px;margin:0 auto;padding:40px 20px;">
<div style="background-color:#fdfcfa;padding:40px;">
%s
</div>
<div style="text-align:center;padding-top:20px;">
<p style="font-size:14px;color:#737373;">anEmpire</p>
</div>
</div>
</body>
</html>`, content)
}

func heading(text string) string {
	return fmt.Sprintf(`<h1 style="font-size:24px;font-weight:400;color:#262626;margin:0 0 24px 0;">%s</h1>`, html.EscapeString(text))
}

func para(label, value string) string {
	if value == "" {
		return ""
	}
	escaped := strings.ReplaceAll(html.EscapeString(value), "\n", "<br>")
	return fmt.Sprintf(`<p style="font-size:16px;line-height:1.6;color:#404040;margin:0 0 16px 0;"><strong>%s:</strong> %s</p>`, html.EscapeString(label), escaped)
}

func footer(submittedAt time.Time) string {
	return fmt.Sprintf(`<p style="font-size:14px;color:#737373;margin:24px 0 0 0;">Submitted at: %s</p>`, submittedAt.Format("January 2, 2006 15:04 MST"))
}

// PasswordResetEmail renders the reset (or first set-password) message. The
// link carries the opaque token as a query parameter.
func PasswordResetEmail(link string, newAccount bool) (subject, body string) {
	title := "Reset your password"
	lead := "We received a request to reset your password. The link below is valid for one hour and can be used once."
	if newAccount {
		title = "Set your password"
		lead = "An account has been created for you. Use the link below within 7 days to choose your password."
	}
	content := heading(title) +
		fmt.Sprintf(`<p style="font-size:16px;line-height:1.6;color:#404040;margin:0 0 24px 0;">%s</p>`, html.EscapeString(lead)) +
		fmt.Sprintf(`<p style="margin:0 0 24px 0;"><a href="%s" style="color:#262626;">%s</a></p>`, link, link) +
		`<p style="font-size:14px;color:#737373;margin:0;">If you did not request this, you can ignore this email.</p>`
	return title + " - anEmpire Admin", wrapper(content)
}

// QuestionAdminEmail notifies the site owner about a new question.
func QuestionAdminEmail(question, name, email, phone string, submittedAt time.Time) (subject, body string) {
	content := heading("New Question Submitted") +
		para("Question", question) +
		para("Name", name) +
		para("Email", email) +
		para("Phone", phone) +
		footer(submittedAt)
	return "New Question Submitted", wrapper(content)
}

// ConversationAdminEmail notifies the site owner about a conversation request.
func ConversationAdminEmail(fields map[string]string, submittedAt time.Time) (subject, body string) {
	order := []string{"Business", "Role", "Revenue model", "Revenue range", "Team size", "Limitation", "Responsibility", "Willingness", "Additional context"}
	var b strings.Builder
	b.WriteString(heading("New Conversation Request"))
	for _, label := range order {
		b.WriteString(para(label, fields[label]))
	}
	b.WriteString(footer(submittedAt))
	return "New Conversation Request", wrapper(b.String())
}

// SaveForLaterAdminEmail notifies the site owner about a saved email.
func SaveForLaterAdminEmail(email string, submittedAt time.Time) (subject, body string) {
	content := heading("New Save for Later") +
		para("Email", email) +
		footer(submittedAt)
	return "New Save for Later", wrapper(content)
}

// SaveForLaterReminderEmail is sent to the visitor who saved their email.
func SaveForLaterReminderEmail() (subject, body string) {
	content := heading("The pattern is still there") +
		`<p style="font-size:16px;line-height:1.6;color:#404040;margin:0;">Whenever you are ready to look at it again, we are here.</p>`
	return "The pattern is still there", wrapper(content)
}

// ManualEmail wraps an admin-composed message.
func ManualEmail(subject, message string) (string, string) {
	escaped := strings.ReplaceAll(html.EscapeString(message), "\n", "<br>")
	content := heading(subject) +
		fmt.Sprintf(`<p style="font-size:16px;line-height:1.6;color:#404040;margin:0;">%s</p>`, escaped)
	return subject, wrapper(content)
}
