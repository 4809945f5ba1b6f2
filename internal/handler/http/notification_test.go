package http

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteEvent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeEvent(&buf, "n1", "notification", map[string]string{"title": "Nova escala"}))
	assert.Equal(t, "id: n1\nevent: notification\ndata: {\"title\":\"Nova escala\"}\n\n", buf.String())

	buf.Reset()
	require.NoError(t, writeEvent(&buf, "", "ping", map[string]int{"timestamp": 1}))
	assert.Equal(t, "event: ping\ndata: {\"timestamp\":1}\n\n", buf.String())
}

func TestWriteEvent_Unencodable(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, writeEvent(&buf, "n1", "notification", math.Inf(1)))
	assert.Zero(t, buf.Len())
}
