package auth

import (
	"slices"

	"github.com/dmitrymomot/authkit/pkg/credential"
	"github.com/dmitrymomot/authkit/pkg/profile"
)

// Status names the controller's position in the session state machine.
// SignedOut and Authenticated are resting states; the others are
// transitional and resolve within one collaborator round trip.
type Status string

const (
	StatusSignedOut      Status = "signed_out"
	StatusAuthenticating Status = "authenticating"
	StatusRegistering    Status = "registering"
	StatusRestoring      Status = "restoring"
	StatusAuthenticated  Status = "authenticated"
)

// State is the published snapshot observed by consumers.
//
// IsAuthenticated is true only while CurrentProfile is non-nil and the
// session was established via sign-in or restoration. IsRegistered is
// true only immediately following a successful sign-up in the same
// logical flow; it does not survive restoration. FilteredProfiles,
// SearchResults and AllProfiles are independent output slots that never
// interfere with each other or with CurrentProfile.
type State struct {
	Status                 Status
	CurrentProfile         *profile.Profile
	Identity               *credential.Identity
	IsAuthenticated        bool
	IsRegistered           bool
	PasswordResetRequested bool

	// LastMessage carries the most recent failure or informational
	// message, whichever happened last.
	LastMessage string

	FilteredProfiles []profile.Profile
	SearchResults    []profile.Profile
	AllProfiles      []profile.Profile
}

// clone returns a copy safe to hand to observers: pointer targets and
// slices are duplicated so later state changes cannot be seen through
// an old snapshot.
func (s State) clone() State {
	out := s
	if s.CurrentProfile != nil {
		p := *s.CurrentProfile
		out.CurrentProfile = &p
	}
	if s.Identity != nil {
		id := *s.Identity
		out.Identity = &id
	}
	out.FilteredProfiles = slices.Clone(s.FilteredProfiles)
	out.SearchResults = slices.Clone(s.SearchResults)
	out.AllProfiles = slices.Clone(s.AllProfiles)
	return out
}
