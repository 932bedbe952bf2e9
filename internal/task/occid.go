package task

import (
	"strings"

	"git.home.luguber.info/inful/dayplan/internal/util/dates"
)

// Ref is the resolution of a wire identifier: either a master record
// or one dated occurrence of a series. Every mutation path (complete,
// edit, delete, subtask update) goes through ResolveID to decide
// which it is targeting.
type Ref struct {
	MasterID   string
	Date       string
	IsInstance bool
}

// ComposeID builds the composite occurrence id for one dated
// occurrence of the master.
func ComposeID(masterID, date string) string {
	return masterID + "_" + date
}

// ResolveID splits a wire identifier. An id addresses an occurrence
// iff it contains an underscore and the segment after the last
// underscore is a strict YYYY-MM-DD date; the date suffix is the sole
// disambiguator, so a master id may itself contain underscores and
// still round-trip exactly.
func ResolveID(id string) Ref {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 {
		return Ref{MasterID: id}
	}
	suffix := id[i+1:]
	if !dates.IsDate(suffix) {
		return Ref{MasterID: id}
	}
	return Ref{MasterID: id[:i], Date: suffix, IsInstance: true}
}
