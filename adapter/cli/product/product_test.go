package product

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/felixgeelhaar/beaver/adapter/cli"
	internalApp "github.com/felixgeelhaar/beaver/internal/app"
	"github.com/felixgeelhaar/beaver/internal/catalog/application/queries"
	sharedDomain "github.com/felixgeelhaar/beaver/internal/shared/domain"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testMerchant = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000b2")
	testToken    = sharedDomain.MustParseAddress("0x00000000000000000000000000000000000000c0")
)

func setupCLI(t *testing.T) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	c := internalApp.NewMemoryContainer(internalApp.RouterParams{FeeRate: sharedDomain.ZeroAmount}, nil, logger)
	cli.SetApp(&cli.App{Container: c, Caller: testMerchant})
	cli.SetJSONOutput(true)
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetJSONOutput(false)
	})
}

func run(t *testing.T, cmd *cobra.Command, args ...string) ([]byte, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	err := cmd.RunE(cmd, args)
	return out.Bytes(), err
}

func setCreateFlags(t *testing.T, amount, period string) {
	t.Helper()
	require.NoError(t, createCmd.Flags().Set("merchant", testMerchant.String()))
	require.NoError(t, createCmd.Flags().Set("token", testToken.String()))
	require.NoError(t, createCmd.Flags().Set("amount", amount))
	require.NoError(t, createCmd.Flags().Set("period", period))
}

func TestCreateShowList(t *testing.T) {
	setupCLI(t)
	setCreateFlags(t, "1000000", "2592000")

	out, err := run(t, createCmd)
	require.NoError(t, err)
	var created map[string]any
	require.NoError(t, json.Unmarshal(out, &created))
	assert.Equal(t, true, created["created"])
	hash, ok := created["product_hash"].(string)
	require.True(t, ok)

	out, err = run(t, createCmd)
	require.NoError(t, err)
	var again map[string]any
	require.NoError(t, json.Unmarshal(out, &again))
	assert.Equal(t, false, again["created"], "same terms resolve to the same product")
	assert.Equal(t, hash, again["product_hash"])

	out, err = run(t, showCmd, hash)
	require.NoError(t, err)
	var p queries.ProductDTO
	require.NoError(t, json.Unmarshal(out, &p))
	assert.Equal(t, testMerchant, p.Merchant)
	assert.Equal(t, "1000000", p.Amount.String())
	assert.Equal(t, uint64(2592000), p.Period)

	out, err = run(t, listCmd)
	require.NoError(t, err)
	var products []queries.ProductDTO
	require.NoError(t, json.Unmarshal(out, &products))
	assert.Len(t, products, 1)
}

func TestCreate_ZeroPeriod(t *testing.T) {
	setupCLI(t)
	setCreateFlags(t, "1000", "0")

	_, err := run(t, createCmd)
	assert.ErrorIs(t, err, sharedDomain.ErrInvalidParameters)
	assert.Equal(t, cli.ExitInvalid, cli.ExitCode(err))
}

func TestShow_MalformedHash(t *testing.T) {
	setupCLI(t)

	_, err := run(t, showCmd, "0x1234")
	assert.Error(t, err)
}
