// Package state persists the device alarm history.
//
// The FileRepository stores the recently presented alert ids and the last
// finished session as JSON on disk, so a restarted device agent still
// recognizes alerts it already rang for.
package state
