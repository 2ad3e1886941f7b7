// Package mail sends rendered notification emails.
//
// The notification module talks to the Mail interface only. SMTP is the one
// provider shipped here.
package mail
