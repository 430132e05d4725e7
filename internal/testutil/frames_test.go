package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dobble/internal/session"
	"github.com/roach88/dobble/internal/wire"
)

func TestFramePipe_DeliversInOrder(t *testing.T) {
	p := NewFramePipe(4)

	require.True(t, p.Send([]byte("not json")))
	require.NoError(t, p.SendNotice(session.PushNotice{Notice: session.NoticeStarted, GameID: 7}))
	require.NoError(t, p.Close())

	var got [][]byte
	for f := range p.Frames() {
		got = append(got, f)
	}
	require.Len(t, got, 2)
	assert.Equal(t, "not json", string(got[0]))

	dec, err := wire.NewDecoder()
	require.NoError(t, err)
	n, err := dec.Decode(got[1])
	require.NoError(t, err)
	assert.Equal(t, session.NoticeStarted, n.Notice)
	assert.Equal(t, int64(7), n.GameID)
}

func TestFramePipe_CloseIsIdempotent(t *testing.T) {
	p := NewFramePipe(1)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.True(t, p.Closed())
	assert.False(t, p.Send([]byte("{}")))
}
