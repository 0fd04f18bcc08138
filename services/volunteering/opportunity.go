// Package volunteering serves the off-chain catalogue of volunteering
// opportunities and bridges completed ones onto the ledger.
package volunteering

import (
	"errors"
	"fmt"
	"strings"

	"eusko/crypto"
)

// Status is the lifecycle position of an opportunity.
type Status string

const (
	StatusNew               Status = "new"
	StatusInProgress        Status = "inProgress"
	StatusValidated         Status = "validated"
	StatusFinished          Status = "finished"
	StatusReadyOnChain      Status = "readyOnChain"
	StatusRegisteredOnChain Status = "registeredOnChain"
)

var (
	ErrInvalidStatus       = errors.New("volunteering: unknown status")
	ErrInvalidTransition   = errors.New("volunteering: invalid status transition")
	ErrNotOrganism         = errors.New("volunteering: caller is not the act's organism")
	ErrNotApprovedMerchant = errors.New("volunteering: organism is not an approved merchant")
	ErrBridgeOnly          = errors.New("volunteering: on-chain registration goes through the bridge")
	ErrMissingVolunteer    = errors.New("volunteering: act has no volunteer")
)

// Opportunity is one catalogue entry. Reward is expressed in whole EUS.
type Opportunity struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	Organism    string `json:"organism"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Description string `json:"description"`
	Reward      uint64 `json:"reward"`
	Status      Status `json:"status"`
	Volunteer   string `json:"volunteer,omitempty"`
}

// ParseStatus accepts the canonical spelling of a status.
func ParseStatus(s string) (Status, error) {
	switch status := Status(strings.TrimSpace(s)); status {
	case StatusNew, StatusInProgress, StatusValidated, StatusFinished,
		StatusReadyOnChain, StatusRegisteredOnChain:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// next maps every status to the only status it may advance to.
var next = map[Status]Status{
	StatusNew:          StatusInProgress,
	StatusInProgress:   StatusValidated,
	StatusValidated:    StatusFinished,
	StatusFinished:     StatusReadyOnChain,
	StatusReadyOnChain: StatusRegisteredOnChain,
}

// Transition describes a requested status change by an authenticated caller.
type Transition struct {
	Caller    string
	Target    Status
	// Volunteer is nil when the request left the volunteer out. A blank
	// value clears it.
	Volunteer *string
	// Merchant reports whether Caller is an approved merchant on the ledger.
	Merchant bool
}

// Check validates t against the current record. Apply moves a new act into
// progress and may be made by anyone; the three organism steps need the
// act's own organism acting as an approved merchant.
func Check(op Opportunity, t Transition) error {
	if want, ok := next[op.Status]; !ok || want != t.Target {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, op.Status, t.Target)
	}
	switch t.Target {
	case StatusInProgress:
		return nil
	case StatusValidated, StatusFinished, StatusReadyOnChain:
		if !sameAddress(t.Caller, op.Organism) {
			return ErrNotOrganism
		}
		if !t.Merchant {
			return ErrNotApprovedMerchant
		}
		return nil
	default:
		return ErrBridgeOnly
	}
}

// Apply writes the transition onto op. An authenticated caller applying for
// an act becomes its volunteer; otherwise a volunteer present in the request
// is recorded as given, even when blank.
func Apply(op *Opportunity, t Transition) {
	op.Status = t.Target
	switch {
	case t.Target == StatusInProgress && t.Caller != "":
		op.Volunteer = t.Caller
	case t.Volunteer != nil:
		op.Volunteer = strings.TrimSpace(*t.Volunteer)
	}
}

// sameAddress compares two addresses given in either bech32 or hex form.
func sameAddress(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return false
	}
	left, errA := crypto.ParseAddress(a)
	right, errB := crypto.ParseAddress(b)
	if errA == nil && errB == nil {
		return left == right
	}
	return strings.EqualFold(a, b)
}
