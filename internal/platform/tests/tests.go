// Package tests provides the shared harness for domain package tests.
package tests

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"runtime/debug"
	"testing"

	"github.com/claimtoken/ledger/internal/platform/db"
	"github.com/claimtoken/ledger/internal/platform/logger"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Success and Failed markers for test output.
const (
	Success = "✓"
	Failed  = "✗"
)

// Test owns the state shared by a package's tests.
type Test struct {
	Context context.Context
	DB      *db.DB
}

// New creates a test harness backed by filesystem storage under a temporary
// directory the test framework cleans up.
func New(t *testing.T) *Test {
	t.Helper()

	masterDB, err := db.New(&db.StorageConfig{
		Bucket: "standalone",
		Root:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("\t%s\tFailed to create DB : %v", Failed, err)
	}

	return &Test{
		Context: logger.NewContext(),
		DB:      masterDB,
	}
}

// Recover fails the test cleanly on a panic so later tests still run.
func Recover(t *testing.T) {
	t.Helper()
	if r := recover(); r != nil {
		t.Fatalf("Unhandled exception : %v\n%s", r, string(debug.Stack()))
	}
}

// RandAddress returns a random account address.
func RandAddress() common.Address {
	var addr common.Address
	rand.Read(addr[:])
	return addr
}

// RandHash returns a random 32 byte value, usable as an idempotency key.
func RandHash() common.Hash {
	var h common.Hash
	rand.Read(h[:])
	return h
}

// GenerateKey returns a fresh secp256k1 key and the address it controls.
func GenerateKey(t *testing.T) (*ecdsa.PrivateKey, common.Address) {
	t.Helper()

	key, err := crypto.GenerateKey()
	if err != nil {
		t.Fatalf("\t%s\tFailed to generate key : %v", Failed, err)
	}

	return key, crypto.PubkeyToAddress(key.PublicKey)
}
