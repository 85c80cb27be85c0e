package accountrepo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Cygnus-Wealth/cygnus-wealth-core-sub000/internal/domain/entity"
)

func TestLoadMissingFileIsEmptyList(t *testing.T) {
	repo := New(t.TempDir(), zap.NewNop())
	accounts, err := repo.Load()
	require.NoError(t, err)
	assert.Empty(t, accounts)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir, zap.NewNop())

	in := []entity.Account{
		{
			ID:             "acct-1",
			Kind:           entity.KindWallet,
			Platform:       entity.PlatformMultiChainEVM,
			Label:          "Main",
			Status:         entity.StatusConnected,
			Addresses:      []string{"0xa0a0000000000000000000000000000000000001"},
			DeclaredChains: []entity.ChainID{"arbitrum", "ethereum"},
			TrackedTokens: []entity.TokenRef{
				{ContractAddress: "0xusdc", Symbol: "USDC", Decimals: 6, Chain: "ethereum"},
			},
		},
		{
			ID:        "acct-2",
			Kind:      entity.KindWallet,
			Platform:  entity.PlatformSolana,
			Status:    entity.StatusDisconnected,
			Addresses: []string{"9xQeWvG816bUx9EPjHmaT23yvVM2ZWbrrpZb9PusVFin"},
		},
	}
	require.NoError(t, repo.Save(in))

	// Stored under the namespaced path.
	_, err := os.Stat(filepath.Join(dir, "cygnus", "accounts.json"))
	require.NoError(t, err)

	out, err := repo.Load()
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestSaveOverwritesPrevious(t *testing.T) {
	repo := New(t.TempDir(), zap.NewNop())

	require.NoError(t, repo.Save([]entity.Account{{ID: "old", Kind: entity.KindWallet, Platform: entity.PlatformEVM}}))
	require.NoError(t, repo.Save([]entity.Account{{ID: "new", Kind: entity.KindWallet, Platform: entity.PlatformEVM}}))

	out, err := repo.Load()
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "new", out[0].ID)
}

func TestLoadRejectsCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	repo := New(dir, zap.NewNop())

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "cygnus"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cygnus", "accounts.json"), []byte("{not json"), 0o644))

	_, err := repo.Load()
	assert.Error(t, err)
}
