// Package lib holds support code that sits outside the request layers:
// background jobs on Redis through asynq and the Resend email client.
package lib
