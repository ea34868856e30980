package waitlist

import (
	"fmt"
	"net/smtp"
	"os"
)

func sendWelcomeEmail(to, name, referralCode string, position int64) error {
	from := os.Getenv("SMTP_FROM")
	password := os.Getenv("SMTP_PASSWORD")
	host := os.Getenv("SMTP_HOST")
	port := os.Getenv("SMTP_PORT")
	if host == "" {
		return fmt.Errorf("SMTP not configured")
	}

	auth := smtp.PlainAuth("", from, password, host)

	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + name
	}
	subject := "You're on the waitlist!"
	body := fmt.Sprintf("%s,\n\nYou're #%d on the waitlist.\n\nShare your referral code to move up: %s\n",
		greeting, position, referralCode)

	message := []byte("Subject: " + subject + "\r\n" +
		"From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Content-Type: text/plain; charset=UTF-8\r\n" +
		"\r\n" +
		body + "\r\n")

	return smtp.SendMail(host+":"+port, auth, from, []string{to}, message)
}
