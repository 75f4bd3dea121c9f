// Package store defines the persistence interface for tracked repositories
// and settings. The sqlite subpackage provides the production implementation.
package store
