// Package email delivers transactional mail for password-reset requests.
//
// EmailSender has two implementations: a Postmark client for production and
// DevSender, which writes messages to a directory for local work. NewSender
// picks one from Config. Broadcast fans a message out to several recipients
// concurrently, and the templates subpackage renders the HTML bodies.
package email
