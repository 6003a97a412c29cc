package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionsText(t *testing.T) {
	dbPath := seedStore(t)

	out := &bytes.Buffer{}
	cmd := NewSessionsCommand(&RootOptions{Format: "text"})
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--db", dbPath})
	require.NoError(t, cmd.Execute())

	assert.Equal(t,
		"  1  old-session  window=100  resolved=0\n"+
			"  2  new-session  window=10  resolved=2\n",
		out.String())
}

func TestSessionsJSON(t *testing.T) {
	dbPath := seedStore(t)

	out := &bytes.Buffer{}
	cmd := NewSessionsCommand(&RootOptions{Format: "json"})
	cmd.SetOut(out)
	cmd.SetArgs([]string{"--db", dbPath})
	require.NoError(t, cmd.Execute())

	var resp struct {
		Data []SessionSummary `json:"data"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "new-session", resp.Data[1].ID)
	assert.Equal(t, int64(2), resp.Data[1].Resolved)
}
