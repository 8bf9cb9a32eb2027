// Package scheduler sends a daily reminder to every user who has
// ingredients expiring soon. A ticker checks once a minute; the first check
// inside the configured hour sends the day's reminders, and a per-user mark
// in storage keeps later checks that day from repeating them.
package scheduler
