// Package services contains the application services composing the identity
// store and the backend client: table resolution, order session guarding,
// status synchronization, cart projection and invoice generation.
package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/terra-dine/terra-ordering/client"
	"github.com/terra-dine/terra-ordering/models"
	"github.com/terra-dine/terra-ordering/session"
	"github.com/terra-dine/terra-ordering/store"
)

// ResolutionKind classifies the outcome of a table resolution
type ResolutionKind int

const (
	// ResolutionCold means there was no slug at all; dine-in state was wiped
	ResolutionCold ResolutionKind = iota
	// ResolutionAdopted means the table was available and is now ours
	ResolutionAdopted
	// ResolutionOwned means the table is locked by our own session
	ResolutionOwned
	// ResolutionWaitlistOffered means the table is occupied by someone else;
	// the customer may choose to join the waitlist but is never auto-joined
	ResolutionWaitlistOffered
)

// TableResolution is the result of reconciling a scanned slug with cached
// identity and backend truth
type TableResolution struct {
	Kind     ResolutionKind
	State    session.State
	Waitlist *models.WaitlistInfo
}

// TableResolver reconciles a scanned QR slug against the identity store and
// the backend lookup endpoint
type TableResolver struct {
	api *client.Client
	st  store.Store
}

// NewTableResolver creates a resolver over the given backend client and
// identity store
func NewTableResolver(api *client.Client, st store.Store) *TableResolver {
	return &TableResolver{api: api, st: st}
}

// Resolve runs the landing reconciliation. slug is the QR code parameter if
// present; when empty, the previously persisted slug is used so in-app
// navigation survives without the parameter. All backend failures are
// non-fatal to the app: local identity is cleared conservatively and the
// user can rescan.
func (r *TableResolver) Resolve(ctx context.Context, slug string) (*TableResolution, error) {
	state := session.Load(r.st)

	if slug == "" {
		slug = state.ScanToken
	}
	if slug == "" {
		// Cold visit: no slug anywhere. Clear dine-in state so nothing
		// stale leaks into this visit.
		state = state.OnColdVisit()
		session.Save(r.st, state)
		return &TableResolution{Kind: ResolutionCold, State: state}, nil
	}

	state = state.OnTableScanned(slug)

	outcome, err := r.api.LookupTable(ctx, slug, state.SessionToken, state.WaitToken)
	if err != nil {
		state = state.OnLookupFailed()
		session.Save(r.st, state)
		return nil, classifyLookupError(err)
	}

	if !outcome.Table.Validate() {
		// A descriptor without an id or number must never be stored
		state = state.OnLookupFailed()
		session.Save(r.st, state)
		return nil, fmt.Errorf("backend returned an incomplete table descriptor")
	}

	if outcome.Locked {
		owned := state.SessionToken != "" &&
			outcome.Table.SessionToken != nil &&
			*outcome.Table.SessionToken == state.SessionToken
		if owned {
			state = state.OnTableResumed(outcome.Table)
			session.Save(r.st, state)
			return &TableResolution{Kind: ResolutionOwned, State: state}, nil
		}

		// Occupied by someone else: surface the waitlist offer, do not
		// enroll and do not disturb local state beyond the scan itself.
		session.Save(r.st, state)
		return &TableResolution{
			Kind:     ResolutionWaitlistOffered,
			State:    state,
			Waitlist: outcome.Waitlist,
		}, nil
	}

	// 200 AVAILABLE: adopt the descriptor, forcing the scanned slug. A
	// server slug that disagrees with the scan is an error, not new truth.
	mismatch := outcome.Table.QRSlug != "" && outcome.Table.QRSlug != slug
	sessionToken := ""
	if outcome.SessionToken != nil {
		sessionToken = *outcome.SessionToken
	}
	state = state.OnTableAdopted(outcome.Table, sessionToken)
	session.Save(r.st, state)

	if mismatch {
		log.Printf("resolver: lookup for %s returned slug %s", slug, outcome.Table.QRSlug)
		return &TableResolution{Kind: ResolutionAdopted, State: state}, client.ErrSlugMismatch
	}
	return &TableResolution{Kind: ResolutionAdopted, State: state}, nil
}

// JoinWaitlist records the offered wait token after an explicit customer
// choice
func (r *TableResolver) JoinWaitlist(waitToken string) session.State {
	state := session.Load(r.st)
	state = state.OnWaitlisted(waitToken)
	session.Save(r.st, state)
	return state
}

// classifyLookupError maps backend failures to the user-facing error
// classes: table not found, merged table, or a generic failure
func classifyLookupError(err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.StatusCode == 404:
			return fmt.Errorf("this table code is not recognized: %w", client.ErrNotFound)
		case apiErr.Code == "TABLE_MERGED":
			return client.ErrTableMerged
		}
	}
	return fmt.Errorf("could not resolve table: %w", err)
}
