package mail

import (
	"fmt"
	"log"

	"github.com/Decoupled-Saas/nextpress/internal/pkg/env"
)

// SendVerificationEmail mails the activation link for a fresh account.
func SendVerificationEmail(to, name, token string) error {
	base := env.GetEnv("PUBLIC_DOMAIN", "http://localhost:3000")
	link := fmt.Sprintf("%s/api/v1/auth/verify-email?token=%s", base, token)

	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>please confirm your email address by clicking the link below:</p>"+
			"<p><a href=\"%s\">Verify my email</a></p>"+
			"<p>The link is valid for 24 hours.</p>",
		name, link,
	)
	return SendMail(to, "Please verify your email address", body)
}

// SendWelcomeEmail greets a verified account.
func SendWelcomeEmail(to, name string) error {
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>your email address is verified and your account is ready to use.</p>",
		name,
	)
	return SendMail(to, "Welcome aboard", body)
}

// SendSubscriptionConfirmation notifies an account that its subscription is
// active. Failures are logged and swallowed; billing state must never depend
// on the mail server.
func SendSubscriptionConfirmation(to, name, planName string) {
	body := fmt.Sprintf(
		"<p>Hi %s,</p>"+
			"<p>thanks for subscribing! Your %s subscription is now active.</p>",
		name, planName,
	)
	if err := SendMail(to, "Your subscription is active", body); err != nil {
		log.Printf("subscription confirmation mail to %s failed: %v", to, err)
	}
}
