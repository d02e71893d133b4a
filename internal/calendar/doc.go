// Package calendar wraps the Google Calendar API for listing
// calendars and managing events.
//
// Attendees are concrete email addresses; contact-name resolution
// happens upstream before an event reaches this package.
package calendar
