// Package model defines the shared data structures persisted by the store
// and exchanged with the admin API.
package model
