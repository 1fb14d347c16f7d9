package utils

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"gopkg.in/gomail.v2"
)

// Initialize the SMTP mailer once and store it in a global variable
var mailer *gomail.Dialer

// InitializeMailer sets up the mailer using environment variables. When SMTP
// is not configured the mailer stays nil and notification mails are skipped.
func InitializeMailer() {
	mailHost := os.Getenv("SMTP_HOST")
	mailPort := os.Getenv("SMTP_PORT")
	mailUser := os.Getenv("SMTP_USER")
	mailPassword := os.Getenv("SMTP_PASSWORD")

	if mailHost == "" {
		log.Println("[MAIL] SMTP_HOST not set, report notifications disabled")
		return
	}

	port, err := strconv.Atoi(mailPort)
	if err != nil {
		log.Printf("Invalid SMTP_PORT value: %v, defaulting to port 25", err)
		port = 25
	}

	mailer = gomail.NewDialer(mailHost, port, mailUser, mailPassword)
}

// GetMailer returns the initialized mailer
func GetMailer() *gomail.Dialer {
	return mailer
}

// SendEmail sends an email with an optional attachment, and returns an error if it fails.
func SendEmail(email string, message string, title string, attachmentPath string) error {
	if mailer == nil {
		return fmt.Errorf("mailer is not initialized")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", os.Getenv("SMTP_FROM"))
	m.SetHeader("To", email)
	m.SetHeader("Subject", title)
	m.SetBody("text/plain", message)

	if attachmentPath != "" {
		m.Attach(attachmentPath)
	}

	if err := mailer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email to %s: %v", email, err)
	}
	return nil
}
