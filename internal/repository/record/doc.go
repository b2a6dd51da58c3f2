// Package record implements read access to the per-user record store.
//
// A record is an associative document keyed by user id. Targets expose
// assignedResponders and responders expose deliveryAddress; no schema is
// owned or migrated here beyond the single documents table of the sqlite
// backend.
package record
