//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "commerce-api"
	ConsumerName = "storefront-portal"

	StateCustomersBaseline = "customers baseline"
	StateCustomerExists    = "customer c-pact-001 exists"
	StateCustomerMissing   = "no customer with guid c-pact-404"
)

const (
	ExistingCustomerGUID = "c-pact-001"
	MissingCustomerGUID  = "c-pact-404"

	CustomerStoreCode = "pact-store"
	CustomerUserID    = "pact-shopper"
	CustomerEmail     = "pact.shopper@example.com"
	CustomerName      = "Pact Shopper"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCustomerPayload provides stable registration data for pact interactions.
func ExampleCustomerPayload() map[string]any {
	return map[string]any{
		"store_code": CustomerStoreCode,
		"user_id":    CustomerUserID,
		"email":      CustomerEmail,
		"name":       CustomerName,
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
