package editor

import (
	"context"
	"errors"
	"sync"

	"adboard/internal/domain"
	"adboard/internal/infrastructure/imagefile"
)

type Board interface {
	Sink
	Get(ctx context.Context, id string) (domain.Ad, error)
}

// Workspace owns the single creation editor and one editor per ad that has been opened.
type Workspace struct {
	mu        sync.Mutex
	board     Board
	reader    imagefile.Reader
	clipboard *Clipboard
	creator   *Editor
	editors   map[string]*Editor
}

func NewWorkspace(board Board, reader imagefile.Reader, clipboard *Clipboard) *Workspace {
	return &Workspace{
		board:     board,
		reader:    reader,
		clipboard: clipboard,
		creator:   NewCreator(board, reader, clipboard),
		editors:   make(map[string]*Editor),
	}
}

func (w *Workspace) Creator() *Editor {
	return w.creator
}

func (w *Workspace) Clipboard() *Clipboard {
	return w.clipboard
}

// ForAd returns the editor of an ad, synced with the board's current record.
// The editor of a deleted ad is torn down.
func (w *Workspace) ForAd(ctx context.Context, id string) (*Editor, error) {
	ad, err := w.board.Get(ctx, id)

	w.mu.Lock()
	defer w.mu.Unlock()

	if err != nil {
		if errors.Is(err, domain.ErrAdNotFound) {
			if ed, ok := w.editors[id]; ok {
				ed.Close()
				delete(w.editors, id)
			}
		}
		return nil, err
	}

	ed, ok := w.editors[id]
	if !ok {
		ed = NewExisting(ad, w.board, w.reader)
		w.editors[id] = ed
		return ed, nil
	}
	ed.Sync(ad)
	return ed, nil
}

// Release tears down the editor of id, if any.
func (w *Workspace) Release(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ed, ok := w.editors[id]; ok {
		ed.Close()
		delete(w.editors, id)
	}
}

func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.creator.Close()
	for id, ed := range w.editors {
		ed.Close()
		delete(w.editors, id)
	}
}
