package geth

import (
	"crypto/ecdsa"
	"fmt"

	gethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// LoadKey reads a hex-encoded secp256k1 private key from path.
func LoadKey(path string) (*ecdsa.PrivateKey, error) {
	key, err := gethcrypto.LoadECDSA(path)
	if err != nil {
		return nil, fmt.Errorf("geth: load key from %s: %w", path, err)
	}
	return key, nil
}
