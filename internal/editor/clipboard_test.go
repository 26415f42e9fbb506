package editor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClipboardSubscribeUnsubscribe(t *testing.T) {
	clip := NewClipboard()
	calls := 0
	unsubscribe := clip.Subscribe(func(context.Context, []ClipboardItem) error {
		calls++
		return nil
	})

	delivered, err := clip.Paste(context.Background(), nil)
	assert.NoError(t, err)
	assert.True(t, delivered)

	unsubscribe()
	unsubscribe()

	delivered, _ = clip.Paste(context.Background(), nil)
	assert.False(t, delivered)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, clip.Subscribers())
}

func TestClipboardJoinsHandlerErrors(t *testing.T) {
	clip := NewClipboard()
	boom := errors.New("boom")
	clip.Subscribe(func(context.Context, []ClipboardItem) error { return boom })
	clip.Subscribe(func(context.Context, []ClipboardItem) error { return nil })

	delivered, err := clip.Paste(context.Background(), nil)
	assert.True(t, delivered)
	assert.ErrorIs(t, err, boom)
}

func TestFirstImage(t *testing.T) {
	_, ok := firstImage([]ClipboardItem{{Type: "text/html"}})
	assert.False(t, ok)

	item, ok := firstImage([]ClipboardItem{{Type: "text/html"}, {Type: "image/gif"}, {Type: "image/png"}})
	assert.True(t, ok)
	assert.Equal(t, "image/gif", item.Type)
}
