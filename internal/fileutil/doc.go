// Package fileutil holds the small filesystem helpers shared by the stages:
// stem handling, sorted directory listings, and temp-then-rename writes.
package fileutil
