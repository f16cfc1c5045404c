// Package service holds the mail sender, resend bookkeeping and the
// background cleanup jobs
package service

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/gomail.v2"
)

// MailEnabled reports whether new accounts have to verify their email.
// When disabled every registration is auto-verified
func MailEnabled() bool {
	return viper.GetString("auth.verification_mode") == "require_email"
}

// SendOTPMail delivers a one-time code to a user. The call is
// synchronous, a slow SMTP server stalls the registration response
func SendOTPMail(sendTo, otp, username string) error {
	from := viper.GetString("mail.sender")

	m := gomail.NewMessage()
	m.SetHeader("From", fmt.Sprintf("\"CHAT_ON\" <%s>", from))
	m.SetHeader("To", sendTo)
	m.SetHeader("Subject", "Email Verification - CHAT_ON")
	m.SetBody("text/html", fmt.Sprintf(`
		<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
			<h2>Hello %s!</h2>
			<p>Thank you for registering with CHAT_ON. Please use the following code to verify your email address:</p>
			<div style="text-align: center; margin: 30px 0;">
				<span style="font-size: 32px; font-weight: bold; letter-spacing: 8px;">%s</span>
			</div>
			<p>This code is valid for <strong>10 minutes</strong>.</p>
			<p>If you didn't create an account with CHAT_ON, please ignore this email.</p>
			<p style="color: #999; font-size: 12px;">&copy; %d CHAT_ON. All rights reserved.</p>
		</div>`, username, otp, time.Now().Year()))

	d := gomail.NewDialer(
		viper.GetString("mail.host"),
		viper.GetInt("mail.port"),
		from,
		viper.GetString("mail.password"),
	)

	return d.DialAndSend(m)
}
