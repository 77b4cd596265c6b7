package events

import (
	"sort"

	"github.com/harava/talkoot/internal/users"
)

// Scope is the set of events a caller may see and modify.
type Scope struct {
	all   bool
	zones map[int]struct{}
}

// ScopeFor builds the scope of a caller. Officials and superusers see every
// event, contractors the events of their zones and everybody else nothing.
func ScopeFor(user *users.User, contractorZones []int) Scope {
	if !user.Authenticated() {
		return Scope{}
	}
	if user.Privileged() {
		return Scope{all: true}
	}
	if !user.IsContractor {
		return Scope{}
	}

	scope := Scope{zones: map[int]struct{}{}}
	for _, id := range contractorZones {
		scope.zones[id] = struct{}{}
	}
	return scope
}

// AllScope is the scope of internal jobs.
func AllScope() Scope {
	return Scope{all: true}
}

func (scope Scope) All() bool {
	return scope.all
}

func (scope Scope) None() bool {
	return !scope.all && len(scope.zones) == 0
}

func (scope Scope) Allows(event *Event) bool {
	if scope.all {
		return true
	}
	_, ok := scope.zones[event.ZoneID]
	return ok
}

// ZoneIDs returns the zones of a restricted scope in ascending order.
func (scope Scope) ZoneIDs() []int {
	ids := make([]int, 0, len(scope.zones))
	for id := range scope.zones {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
