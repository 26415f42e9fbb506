package editor

import (
	"context"
	"errors"
	"sync"

	"adboard/internal/infrastructure/imagefile"
)

type ClipboardItem struct {
	Type string
	File imagefile.File
}

type PasteHandler func(ctx context.Context, items []ClipboardItem) error

// Clipboard fans paste events out to whoever is subscribed at the time of the paste.
type Clipboard struct {
	mu       sync.Mutex
	nextID   int
	handlers map[int]PasteHandler
}

func NewClipboard() *Clipboard {
	return &Clipboard{handlers: make(map[int]PasteHandler)}
}

// Subscribe registers h until the returned func is called. Calling it twice is harmless.
func (c *Clipboard) Subscribe(h PasteHandler) (unsubscribe func()) {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.handlers[id] = h
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.handlers, id)
			c.mu.Unlock()
		})
	}
}

func (c *Clipboard) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.handlers)
}

// Paste delivers items to every current subscriber and joins their errors.
// It reports whether anyone was listening.
func (c *Clipboard) Paste(ctx context.Context, items []ClipboardItem) (bool, error) {
	c.mu.Lock()
	handlers := make([]PasteHandler, 0, len(c.handlers))
	for _, h := range c.handlers {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, items); err != nil {
			errs = append(errs, err)
		}
	}
	return len(handlers) > 0, errors.Join(errs...)
}

func firstImage(items []ClipboardItem) (ClipboardItem, bool) {
	for _, item := range items {
		if imagefile.IsImageType(item.Type) {
			return item, true
		}
	}
	return ClipboardItem{}, false
}
