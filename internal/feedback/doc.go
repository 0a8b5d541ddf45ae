// Package feedback stores messages users send from the web page or the
// command line. Entries go to an append-only CSV log or to a SQLite database.
package feedback
