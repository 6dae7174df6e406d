// Package report implements the compose-and-submit flow for a sighting.
package report

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/couchcryptid/marine-sighting/internal/domain"
	"github.com/couchcryptid/marine-sighting/internal/observability"
)

// State is the position of the form in the report lifecycle.
type State int

const (
	Idle State = iota
	Composing
	Submitting
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Composing:
		return "composing"
	case Submitting:
		return "submitting"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrFormClosed is returned when editing or submitting while Idle.
	ErrFormClosed = errors.New("report form is not open")
	// ErrSubmitInProgress is returned while a submission is outstanding.
	ErrSubmitInProgress = errors.New("submission already in progress")
)

// LocationSource reads the current location state.
type LocationSource interface {
	CurrentState() domain.LocationState
}

// Collection is the subset of the sighting store the flow mutates.
type Collection interface {
	Append(s domain.Sighting) (int, domain.Sighting)
	Confirm(localSeq uint64, confirmed domain.Sighting) bool
}

// Gateway submits a sighting to the remote store.
type Gateway interface {
	Create(ctx context.Context, s domain.Sighting) (domain.Sighting, error)
}

// View is a snapshot of the form for rendering.
type View struct {
	State       State
	Species     string
	Description string
	Message     string
	// CanSubmit is false while a submission is outstanding or the form is closed.
	CanSubmit bool
}

// Outcome describes the result of one Submit call.
type Outcome struct {
	State    State
	Message  string
	Err      error
	Index    int // store position of the optimistic entry, -1 when nothing was stored
	Sighting domain.Sighting
}

// Flow is the single user-facing state machine:
//
//	Idle -> Composing -> Submitting -> {Succeeded, Failed}
//
// Succeeded and Failed keep the form open; any edit moves back to Composing
// and Cancel returns to Idle, discarding field values.
type Flow struct {
	location   LocationSource
	collection Collection
	gateway    Gateway
	logger     *slog.Logger
	metrics    *observability.Metrics

	mu          sync.Mutex
	state       State
	species     string
	description string
	message     string
}

// NewFlow creates a flow in the Idle state.
func NewFlow(location LocationSource, collection Collection, gateway Gateway, logger *slog.Logger, metrics *observability.Metrics) *Flow {
	return &Flow{
		location:   location,
		collection: collection,
		gateway:    gateway,
		logger:     logger,
		metrics:    metrics,
	}
}

// Open shows the form. It has no effect unless the flow is Idle.
func (f *Flow) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Idle {
		f.state = Composing
	}
}

// SetSpecies edits the species field.
func (f *Flow) SetSpecies(v string) error {
	return f.edit(func() { f.species = v })
}

// SetDescription edits the description field.
func (f *Flow) SetDescription(v string) error {
	return f.edit(func() { f.description = v })
}

// Cancel hides the form and discards field values.
func (f *Flow) Cancel() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == Submitting {
		return ErrSubmitInProgress
	}
	f.state = Idle
	f.species, f.description, f.message = "", "", ""
	return nil
}

// View returns the current form snapshot.
func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return View{
		State:       f.state,
		Species:     f.species,
		Description: f.description,
		Message:     f.message,
		CanSubmit:   f.state != Idle && f.state != Submitting,
	}
}

// Submit validates the form against the current location and, when valid,
// stores the sighting optimistically and sends it to the remote store.
// Location and validation failures never touch the store or the gateway.
// Sync failures leave the optimistic entry in place.
func (f *Flow) Submit(ctx context.Context) Outcome {
	f.mu.Lock()
	switch f.state {
	case Idle:
		f.mu.Unlock()
		return Outcome{State: Idle, Err: ErrFormClosed, Message: ErrFormClosed.Error(), Index: -1}
	case Submitting:
		f.mu.Unlock()
		return Outcome{State: Submitting, Err: ErrSubmitInProgress, Message: ErrSubmitInProgress.Error(), Index: -1}
	}

	loc := f.location.CurrentState()
	if err := loc.Err(); err != nil {
		out := f.refuseLocked(locationError(err), outcomeLabel(err))
		f.mu.Unlock()
		return out
	}
	if err := loc.Coordinate.Validate(); err != nil {
		out := f.refuseLocked(fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err), "location_unavailable")
		f.mu.Unlock()
		return out
	}
	if strings.TrimSpace(f.species) == "" {
		out := f.refuseLocked(fmt.Errorf("%w: species is required", domain.ErrInvalidSpecies), "invalid_species")
		f.mu.Unlock()
		return out
	}

	sighting := domain.NewSighting(f.species, f.description, loc.Coordinate)
	f.state = Submitting
	f.message = ""
	f.mu.Unlock()

	// Store listeners run synchronously, so the append happens outside mu.
	idx, stored := f.collection.Append(sighting)
	f.logger.Info("sighting stored locally", "species", stored.Species, "local_seq", stored.LocalSeq, "index", idx)

	confirmed, err := f.gateway.Create(ctx, stored)
	if err != nil {
		f.logger.Warn("sighting not confirmed by remote store", "local_seq", stored.LocalSeq, "error", err)
		return f.finish(Outcome{State: Failed, Message: syncMessage(err), Err: err, Index: idx, Sighting: stored}, "sync_failed")
	}

	if f.collection.Confirm(stored.LocalSeq, confirmed) {
		seq := stored.LocalSeq
		stored = confirmed
		stored.LocalSeq = seq
	}
	return f.finish(Outcome{State: Succeeded, Message: "sighting reported", Index: idx, Sighting: stored}, "succeeded")
}

func (f *Flow) finish(out Outcome, label string) Outcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = out.State
	f.message = out.Message
	f.count(label)
	return out
}

func (f *Flow) edit(apply func()) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.state {
	case Idle:
		return ErrFormClosed
	case Submitting:
		return ErrSubmitInProgress
	}
	apply()
	f.state = Composing
	f.message = ""
	return nil
}

// refuseLocked must be called with mu held.
func (f *Flow) refuseLocked(err error, label string) Outcome {
	f.state = Failed
	f.message = err.Error()
	f.count(label)
	f.logger.Info("sighting refused", "reason", label, "error", err)
	return Outcome{State: Failed, Message: f.message, Err: err, Index: -1}
}

func (f *Flow) count(outcome string) {
	if f.metrics != nil {
		f.metrics.ReportOutcomes.WithLabelValues(outcome).Inc()
	}
}

func locationError(err error) error {
	if errors.Is(err, domain.ErrPermissionDenied) {
		return fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, domain.ErrPermissionDenied)
	}
	return fmt.Errorf("%w: waiting for a position fix", domain.ErrLocationUnavailable)
}

func outcomeLabel(err error) string {
	if errors.Is(err, domain.ErrPermissionDenied) {
		return "permission_denied"
	}
	return "location_unavailable"
}

func syncMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrUnreachable):
		return "sighting saved on this device but the server could not be reached"
	case errors.Is(err, domain.ErrMalformed):
		return "sighting saved on this device but the server reply was not understood"
	default:
		return "sighting saved on this device but could not be sent: " + err.Error()
	}
}
