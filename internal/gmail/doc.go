// Package gmail wraps the Gmail API for listing, reading, sending
// and forwarding mail.
//
// Callers pass fully resolved email addresses; contact-name
// resolution happens upstream. Outbound messages are built in RFC
// 2822 format with RFC 2047 header encoding for non-ASCII subjects.
package gmail
