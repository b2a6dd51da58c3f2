// Package seed implements sos-seed, which imports target and responder
// records from a YAML snapshot into the sqlite record store.
package seed
