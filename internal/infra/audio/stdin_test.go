package audio

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"buddy/internal/domain"
)

func TestStdinSourceReadsLines(t *testing.T) {
	source := newStdinSource(strings.NewReader("open resume\nlaunch chrome\n"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, source.Start(ctx))

	payload, err := source.NextCommand(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.TextCommandPrefix+"open resume", string(payload))

	payload, err = source.NextCommand(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.TextCommandPrefix+"launch chrome", string(payload))
}

func TestStdinSourceSkipsBlankLines(t *testing.T) {
	source := newStdinSource(strings.NewReader("\n   \nmute the volume\n"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, source.Start(ctx))

	payload, err := source.NextCommand(ctx)
	require.NoError(t, err)
	require.Equal(t, domain.TextCommandPrefix+"mute the volume", string(payload))
}

func TestStdinSourceReportsEOF(t *testing.T) {
	source := newStdinSource(strings.NewReader(""))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, source.Start(ctx))

	_, err := source.NextCommand(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "stdin closed")
}
