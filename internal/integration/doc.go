// Package integration exercises the sandbox runtimes against a real
// docker daemon.
//
// The lifecycle tests carry the integration build tag and additionally
// skip unless AOE_INTEGRATION_TESTS=1 and docker answers:
//
//	AOE_INTEGRATION_TESTS=1 go test -tags integration -v ./internal/integration/...
//
// # Test Harness
//
//	func TestMyIntegration(t *testing.T) {
//	    h := integration.NewHarness(t) // skips when disabled
//	    c := h.Docker(h.SessionID(), "alpine:latest")
//	    // create, exec, ... ; tracked runtimes are force-removed on cleanup
//	}
//
// The harness provides a temporary app dir and project dir, unique
// session ids, compose file fixtures and automatic teardown.
package integration
