package auth

import (
	"context"
	"log"
)

// LogMailer writes codes to the process log. Stand-in until a real
// delivery channel is wired; satisfies Mailer.
type LogMailer struct{}

func (LogMailer) SendVerificationCode(_ context.Context, email, code string) error {
	log.Printf("level=info msg=verification code issued email=%s code=%s", email, code)
	return nil
}

func (LogMailer) SendPasswordResetCode(_ context.Context, email, code string) error {
	log.Printf("level=info msg=password reset code issued email=%s code=%s", email, code)
	return nil
}
