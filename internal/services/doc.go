// Package services defines the shared error taxonomy for funbatch components.
//
// Errors are tagged with sentinel markers (configuration, not-found, external
// tool, timeout, io) so the batch coordinator can decide whether a failure is
// fatal to the whole run or scoped to a single item.
package services
