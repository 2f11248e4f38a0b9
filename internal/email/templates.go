package email

import "fmt"

// SendVerificationEmail sends the 6-digit signup verification code.
func SendVerificationEmail(m Mailer, to, code string) error {
	subject := "Verify your email - Trade Analytics"
	body := fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;color:#333">
<h2>Verify your email</h2>
<p>Thanks for signing up for <strong>Trade Analytics</strong>.</p>
<p>Use this code to complete your registration:</p>
<p style="font-size:32px;font-weight:bold;letter-spacing:8px">%s</p>
<p>The code expires in 15 minutes. If you didn't request it, ignore this email.</p>
</body></html>`, code)
	return m.Send(to, subject, body)
}

// SendPasswordResetEmail sends the reset token for a forgotten password.
func SendPasswordResetEmail(m Mailer, to, token string) error {
	subject := "Reset your password - Trade Analytics"
	body := fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;color:#333">
<h2>Password reset</h2>
<p>A password reset was requested for this account.</p>
<p>Use this token to set a new password:</p>
<p style="font-size:14px;word-break:break-all"><code>%s</code></p>
<p>The token expires in 1 hour. If you didn't request it, ignore this email.</p>
</body></html>`, token)
	return m.Send(to, subject, body)
}

// SendWelcomeEmail greets a user after their email is verified.
func SendWelcomeEmail(m Mailer, to, name string) error {
	subject := "Welcome to Trade Analytics"
	if name == "" {
		name = "trader"
	}
	body := fmt.Sprintf(`<html><body style="font-family:Arial,sans-serif;color:#333">
<h2>Welcome, %s!</h2>
<p>Your email is verified. Upload a trade history export to get your first
performance report.</p>
</body></html>`, name)
	return m.Send(to, subject, body)
}
