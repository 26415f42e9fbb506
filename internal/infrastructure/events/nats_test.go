package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingConn struct {
	subjects []string
	payloads []string
	drained  bool
}

func (c *recordingConn) Publish(subject string, data []byte) error {
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, string(data))
	return nil
}

func (c *recordingConn) Drain() error {
	c.drained = true
	return nil
}

func TestNATSPublisherEncodesJSON(t *testing.T) {
	rc := &recordingConn{}
	p := &NATSPublisher{conn: rc}

	require.NoError(t, p.Publish(context.Background(), SubjectAdDeleted, map[string]string{"id": "a1"}))
	require.NoError(t, p.Close())

	assert.Equal(t, []string{SubjectAdDeleted}, rc.subjects)
	assert.JSONEq(t, `{"id":"a1"}`, rc.payloads[0])
	assert.True(t, rc.drained)
}

func TestNATSPublisherRejectsUnencodable(t *testing.T) {
	p := &NATSPublisher{conn: &recordingConn{}}

	err := p.Publish(context.Background(), SubjectAdCreated, make(chan int))
	assert.Error(t, err)
}
