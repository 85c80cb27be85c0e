package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAssetKeyIsStable(t *testing.T) {
	a := NewAsset("acct-1", "ethereum", "0xabc", "ETH")
	b := NewAsset("acct-1", "ethereum", "0xabc", "ETH")

	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "acct-1:ethereum:0xabc:ETH", a.Key().String())

	// Display fields do not affect identity.
	a.Name = "Ether"
	a.Balance = "1.5"
	assert.Equal(t, a.Key(), b.Key())
}

func TestAssetKeyDistinguishesDimensions(t *testing.T) {
	base := NewAsset("acct-1", "ethereum", "0xabc", "ETH")

	otherChain := NewAsset("acct-1", "polygon", "0xabc", "ETH")
	otherAddr := NewAsset("acct-1", "ethereum", "0xdef", "ETH")
	otherSymbol := NewAsset("acct-1", "ethereum", "0xabc", "USDC")
	otherAccount := NewAsset("acct-2", "ethereum", "0xabc", "ETH")

	assert.NotEqual(t, base.Key(), otherChain.Key())
	assert.NotEqual(t, base.Key(), otherAddr.Key())
	assert.NotEqual(t, base.Key(), otherSymbol.Key())
	assert.NotEqual(t, base.Key(), otherAccount.Key())
}

func TestAssetKeyUsableAsMapKey(t *testing.T) {
	seen := map[AssetKey]int{}
	seen[NewAsset("acct-1", "ethereum", "0xabc", "ETH").Key()]++
	seen[NewAsset("acct-1", "ethereum", "0xabc", "ETH").Key()]++
	assert.Len(t, seen, 1)
}
