package eth_test

import (
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/mintaka-labs/warden/internal/eth"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	message := "warden wants you to sign in with your wallet.\n\nNonce: abc123"
	sig, err := eth.Sign(key, message)
	require.NoError(t, err)

	require.True(t, eth.Verify(address, message, sig))
	require.True(t, eth.Verify(address, message, sig), "verification is repeatable")
}

func TestVerifyCaseInsensitiveAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sig, err := eth.Sign(key, "hello")
	require.NoError(t, err)

	require.True(t, eth.Verify(address, "hello", sig))
	require.True(t, eth.Verify(strings.ToLower(address), "hello", sig))
	require.True(t, eth.Verify(strings.ToUpper(address[:2])+address[2:], "hello", sig))
}

func TestVerifyRejectsMutatedSignature(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sig, err := eth.Sign(key, "hello")
	require.NoError(t, err)

	// Flip one hex digit in the r component.
	mutated := []byte(sig)
	if mutated[4] == 'a' {
		mutated[4] = 'b'
	} else {
		mutated[4] = 'a'
	}
	require.False(t, eth.Verify(address, "hello", string(mutated)))
}

func TestVerifyRejectsMutatedMessage(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	address := crypto.PubkeyToAddress(key.PublicKey).Hex()

	sig, err := eth.Sign(key, "hello")
	require.NoError(t, err)

	require.False(t, eth.Verify(address, "hellp", sig))
}

func TestVerifyRejectsWrongAddress(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	other, err := crypto.GenerateKey()
	require.NoError(t, err)

	sig, err := eth.Sign(key, "hello")
	require.NoError(t, err)

	require.False(t, eth.Verify(crypto.PubkeyToAddress(other.PublicKey).Hex(), "hello", sig))
}

func TestVerifyMalformedInput(t *testing.T) {
	require.False(t, eth.Verify("0x0000000000000000000000000000000000000000", "hello", "not-hex"))
	require.False(t, eth.Verify("0x0000000000000000000000000000000000000000", "hello", "0x1234"))
	require.False(t, eth.Verify("0x0000000000000000000000000000000000000000", "hello", ""))
}
