package runtime

import (
	"context"
	"sync"

	"github.com/firefly-engineering/firefly-forage/packages/aoe-ctl/internal/progress"
)

// MockRuntime is a mock implementation of Runtime for testing
type MockRuntime struct {
	mu sync.RWMutex

	// Present and Running describe the mock sandbox state.
	Present bool
	Running bool

	// ContainerID is returned by Create.
	ContainerID string

	// ExecResult is returned by Exec.
	ExecResult *ExecResult

	// Errors allows injecting errors for specific operations
	Errors map[string]error

	// CallLog records all method calls for verification
	CallLog []MockCall

	// CreatedWith holds the config passed to the last Create call.
	CreatedWith *ContainerConfig
}

// MockCall represents a recorded method call
type MockCall struct {
	Method string
	Args   []interface{}
}

// NewMockRuntime creates a new mock runtime
func NewMockRuntime() *MockRuntime {
	return &MockRuntime{
		ContainerID: "mock-container-id",
		ExecResult:  &ExecResult{},
		Errors:      make(map[string]error),
		CallLog:     make([]MockCall, 0),
	}
}

func (m *MockRuntime) record(method string, args ...interface{}) {
	m.CallLog = append(m.CallLog, MockCall{Method: method, Args: args})
}

// SetError sets an error to be returned for a specific operation
func (m *MockRuntime) SetError(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors[operation] = err
}

// GetCalls returns all recorded calls
func (m *MockRuntime) GetCalls() []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	calls := make([]MockCall, len(m.CallLog))
	copy(calls, m.CallLog)
	return calls
}

// GetCallsFor returns all calls for a specific method
func (m *MockRuntime) GetCallsFor(method string) []MockCall {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var calls []MockCall
	for _, call := range m.CallLog {
		if call.Method == method {
			calls = append(calls, call)
		}
	}
	return calls
}

// Name returns the runtime identifier
func (m *MockRuntime) Name() string {
	return "mock"
}

func (m *MockRuntime) Exists(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exists")
	return m.Present
}

func (m *MockRuntime) IsRunning(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("IsRunning")
	return m.Running
}

func (m *MockRuntime) Create(ctx context.Context, cfg *ContainerConfig, sink progress.Sink) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Create", cfg)
	m.CreatedWith = cfg
	if err := m.Errors["Create"]; err != nil {
		return "", err
	}
	progress.Emit(sink, progress.StepStarted(progress.SourceSystem, "mock create"))
	m.Present = true
	m.Running = true
	return m.ContainerID, nil
}

func (m *MockRuntime) Stop(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Stop")
	if m.Errors["Stop"] == nil {
		m.Running = false
	}
}

func (m *MockRuntime) Remove(ctx context.Context, force bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Remove", force)
	if err := m.Errors["Remove"]; err != nil {
		return err
	}
	m.Present = false
	m.Running = false
	return nil
}

func (m *MockRuntime) Exec(ctx context.Context, argv []string) (*ExecResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("Exec", argv)
	if err := m.Errors["Exec"]; err != nil {
		return nil, err
	}
	return m.ExecResult, nil
}

func (m *MockRuntime) ExecCommand(options string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ExecCommand", options)
	if options != "" {
		return "mock exec " + options
	}
	return "mock exec"
}

var _ Runtime = (*MockRuntime)(nil)
