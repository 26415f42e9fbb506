// Package editor implements the draft-and-confirm lifecycle shared by the
// "new ad" form and the inline editor of an existing ad.
//
// An editor holds its own draft. The committed ad only flows into the draft on
// Begin, Cancel and Sync, and the draft only flows out through Confirm, after
// validation, as a payload handed to the Sink.
package editor

import (
	"context"
	"errors"
	"sync"

	"adboard/internal/domain"
	"adboard/internal/infrastructure/imagefile"

	"github.com/go-playground/validator/v10"
)

var (
	ErrNotEditing = errors.New("editor is not editing")
	ErrClosed     = errors.New("editor closed")
)

type State int

const (
	StateViewing State = iota
	StateEditing
)

func (s State) String() string {
	if s == StateEditing {
		return "editing"
	}
	return "viewing"
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Kind int

const (
	KindExisting Kind = iota
	KindCreate
)

func (k Kind) String() string {
	if k == KindCreate {
		return "create"
	}
	return "existing"
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sink receives confirmed payloads.
type Sink interface {
	Create(ctx context.Context, in domain.AdInput) (domain.Ad, error)
	Update(ctx context.Context, id string, patch domain.AdPatch) (domain.Ad, error)
}

type Snapshot struct {
	Kind      Kind       `json:"kind"`
	State     State      `json:"state"`
	Draft     Draft      `json:"draft"`
	Committed *domain.Ad `json:"committed,omitempty"`
}

type Editor struct {
	mu        sync.Mutex
	kind      Kind
	state     State
	committed domain.Ad
	draft     Draft
	closed    bool

	sink        Sink
	reader      imagefile.Reader
	validate    *validator.Validate
	clipboard   *Clipboard
	unsubscribe func()
}

// NewExisting returns an editor for a committed ad, initially viewing.
func NewExisting(ad domain.Ad, sink Sink, reader imagefile.Reader) *Editor {
	return &Editor{
		kind:      KindExisting,
		committed: ad,
		draft:     draftFromAd(ad),
		sink:      sink,
		reader:    reader,
		validate:  newValidator(),
	}
}

// NewCreator returns the collapsed "new ad" editor. While open it listens to clipboard pastes.
func NewCreator(sink Sink, reader imagefile.Reader, clipboard *Clipboard) *Editor {
	return &Editor{
		kind:      KindCreate,
		sink:      sink,
		reader:    reader,
		validate:  newValidator(),
		clipboard: clipboard,
	}
}

func (e *Editor) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()

	snap := Snapshot{Kind: e.kind, State: e.state, Draft: e.draft}
	if e.kind == KindExisting {
		committed := e.committed
		snap.Committed = &committed
	}
	return snap
}

func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Editor) Draft() Draft {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draft
}

// Begin enters editing with a fresh draft. It is a no-op when already editing.
func (e *Editor) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.state == StateEditing {
		return nil
	}

	e.draft = e.initialDraft()
	e.state = StateEditing
	if e.kind == KindCreate && e.clipboard != nil {
		e.unsubscribe = e.clipboard.Subscribe(e.handlePaste)
	}
	return nil
}

func (e *Editor) SetField(field, value string) error {
	return e.SetFields(map[string]string{field: value})
}

// SetFields applies all fields or none.
func (e *Editor) SetFields(fields map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireEditing(); err != nil {
		return err
	}

	next := e.draft
	for field, value := range fields {
		if err := next.set(field, value); err != nil {
			return err
		}
	}
	e.draft = next
	return nil
}

// Confirm validates the draft and hands it to the sink. On a validation
// failure nothing is emitted and the editor stays in editing.
func (e *Editor) Confirm(ctx context.Context) (domain.Ad, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.requireEditing(); err != nil {
		return domain.Ad{}, err
	}

	in := Normalize(e.draft)
	if err := validateInput(e.validate, in); err != nil {
		return domain.Ad{}, err
	}

	var (
		ad  domain.Ad
		err error
	)
	if e.kind == KindCreate {
		ad, err = e.sink.Create(ctx, in)
	} else {
		ad, err = e.sink.Update(ctx, e.committed.ID, in.Patch())
	}
	// A persistence failure still changed the board, so the editor moves on.
	if err != nil && !errors.Is(err, domain.ErrPersist) {
		return domain.Ad{}, err
	}

	if e.kind == KindExisting {
		e.committed = ad
	}
	e.leaveEditing()
	return ad, err
}

// Cancel discards the draft. It is a no-op when not editing.
func (e *Editor) Cancel() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateEditing {
		return
	}
	e.leaveEditing()
}

// Sync records a newer committed version. The draft follows only while viewing.
func (e *Editor) Sync(ad domain.Ad) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.kind != KindExisting || e.closed {
		return
	}
	e.committed = ad
	if e.state == StateViewing {
		e.draft = draftFromAd(ad)
	}
}

// DropFile reads f and replaces the draft image with the result. The read runs
// without holding the editor, so other calls proceed meanwhile. A read that
// finishes after Close is dropped.
func (e *Editor) DropFile(ctx context.Context, f imagefile.File) error {
	e.mu.Lock()
	err := e.requireEditing()
	e.mu.Unlock()
	if err != nil {
		return err
	}

	return e.readImage(ctx, f)
}

// Close tears the editor down. Later calls fail with ErrClosed.
func (e *Editor) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}

func (e *Editor) handlePaste(ctx context.Context, items []ClipboardItem) error {
	item, ok := firstImage(items)
	if !ok {
		return nil
	}
	return e.readImage(ctx, item.File)
}

func (e *Editor) readImage(ctx context.Context, f imagefile.File) error {
	imageURL, err := e.reader.Read(ctx, f)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	e.draft.ImageURL = imageURL
	return nil
}

func (e *Editor) requireEditing() error {
	if e.closed {
		return ErrClosed
	}
	if e.state != StateEditing {
		return ErrNotEditing
	}
	return nil
}

func (e *Editor) initialDraft() Draft {
	if e.kind == KindCreate {
		return Draft{}
	}
	return draftFromAd(e.committed)
}

func (e *Editor) leaveEditing() {
	e.draft = e.initialDraft()
	e.state = StateViewing
	if e.unsubscribe != nil {
		e.unsubscribe()
		e.unsubscribe = nil
	}
}
