// Package mailer sends the contact and provider-request notification emails.
package mailer
