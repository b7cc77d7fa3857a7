package mcp

import (
	"context"
	"testing"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	"github.com/felixgeelhaar/beaver/internal/app"
	"github.com/felixgeelhaar/mcp-go/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCLIApp(t *testing.T) {
	container := app.NewMemoryContainer(app.RouterParams{}, nil, nil)

	cliApp, err := NewCLIApp(container, "")
	require.NoError(t, err)
	assert.True(t, cliApp.Caller.IsZero())

	cliApp, err = NewCLIApp(container, "0x00000000000000000000000000000000000000b0")
	require.NoError(t, err)
	assert.Equal(t, "0x00000000000000000000000000000000000000b0", cliApp.Caller.String())

	_, err = NewCLIApp(container, "bot")
	assert.Error(t, err)
}

func TestNewServer_RegistersEverything(t *testing.T) {
	cliApp, err := NewCLIApp(app.NewMemoryContainer(app.RouterParams{}, nil, nil), "")
	require.NoError(t, err)

	srv, err := NewServer(cliApp)
	require.NoError(t, err)

	tc := testutil.NewTestClient(t, srv)
	defer tc.Close()
	tools, err := tc.ListTools()
	require.NoError(t, err)
	assert.Len(t, tools, 15)
}

func TestServe_RequiresConfig(t *testing.T) {
	assert.Error(t, Serve(context.Background(), nil, &cli.App{}, nil))
}
