package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardwatch/cardwatch/pkg/logger"
)

func TestNoopNotifier_Send(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := NewNoopNotifier(logger.NewWithWriter(&buf, "debug", "text"))

	err := n.Send(context.Background(), testMessage())
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "notification discarded")
}
