package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRegistration struct {
	jp     JoinPoint
	closed bool
}

func (m *mockRegistration) JoinPoint() JoinPoint { return m.jp }
func (m *mockRegistration) Close() error         { m.closed = true; return nil }

type mockBackend struct {
	name string
}

func (m *mockBackend) Name() string { return m.name }

func (m *mockBackend) Install(jp JoinPoint, pre PreHook, post PostHook) (Registration, error) {
	return &mockRegistration{jp: jp}, nil
}

func (m *mockBackend) Capabilities() Capabilities {
	return Capabilities{Name: m.name}
}

func newMockBuilder(name string) Builder {
	return func(ctx context.Context, opts Options) (Backend, error) {
		return &mockBackend{name: name}, nil
	}
}

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()
	assert.NotNil(t, reg)
	assert.NotNil(t, reg.builders)
	assert.NotNil(t, reg.capabilities)
	assert.Empty(t, reg.Names())
}

func TestRegistry_Register(t *testing.T) {
	reg := NewRegistry()

	reg.Register("test-backend", newMockBuilder("test-backend"))
	assert.True(t, reg.Has("test-backend"))
	assert.Contains(t, reg.Names(), "test-backend")
}

func TestRegistry_RegisterWithCapabilities(t *testing.T) {
	reg := NewRegistry()

	caps := Capabilities{
		Name:                "test-backend",
		SupportsSuppression: true,
		SupportsResults:     true,
	}

	reg.RegisterWithCapabilities("test-backend", newMockBuilder("test-backend"), caps)

	assert.True(t, reg.Has("test-backend"))
	retrievedCaps := reg.GetCapabilities("test-backend")
	assert.Equal(t, "test-backend", retrievedCaps.Name)
	assert.True(t, retrievedCaps.SupportsSuppression)
	assert.True(t, retrievedCaps.SupportsResults)
	assert.False(t, retrievedCaps.ObserveOnly())
}

func TestRegistry_GetCapabilities_Unknown(t *testing.T) {
	reg := NewRegistry()
	caps := reg.GetCapabilities("unknown")
	assert.Equal(t, "unknown", caps.Name)
	assert.False(t, caps.SupportsSuppression)
	assert.True(t, caps.ObserveOnly())
}

func TestRegistry_Build(t *testing.T) {
	reg := NewRegistry()
	reg.Register("test-backend", newMockBuilder("test-backend"))

	b, err := reg.Build(context.Background(), "test-backend", nil)
	require.NoError(t, err)
	require.NotNil(t, b)
	assert.Equal(t, "test-backend", b.Name())
}

func TestRegistry_Build_UnknownBackend(t *testing.T) {
	reg := NewRegistry()

	_, err := reg.Build(context.Background(), "unknown-backend", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}

func TestRegistry_Build_BuilderError(t *testing.T) {
	reg := NewRegistry()

	expectedErr := errors.New("builder error")
	reg.Register("failing-backend", func(ctx context.Context, opts Options) (Backend, error) {
		return nil, expectedErr
	})

	_, err := reg.Build(context.Background(), "failing-backend", nil)
	assert.Error(t, err)
	assert.Equal(t, expectedErr, err)
}

func TestRegistry_Build_PassesOptions(t *testing.T) {
	reg := NewRegistry()

	var seen Options
	reg.Register("opt-backend", func(ctx context.Context, opts Options) (Backend, error) {
		seen = opts
		return &mockBackend{name: "opt-backend"}, nil
	})

	_, err := reg.Build(context.Background(), "opt-backend", Options{"mode": "strict"})
	require.NoError(t, err)
	assert.Equal(t, "strict", seen["mode"])
}

func TestRegistry_Has(t *testing.T) {
	reg := NewRegistry()

	assert.False(t, reg.Has("test-backend"))

	reg.Register("test-backend", newMockBuilder("test-backend"))
	assert.True(t, reg.Has("test-backend"))
	assert.False(t, reg.Has("other-backend"))
}

func TestRegistry_Names(t *testing.T) {
	reg := NewRegistry()

	assert.Empty(t, reg.Names())

	reg.Register("backend1", newMockBuilder("backend1"))
	reg.Register("backend2", newMockBuilder("backend2"))
	reg.Register("backend3", newMockBuilder("backend3"))

	names := reg.Names()
	assert.Len(t, names, 3)
	assert.Contains(t, names, "backend1")
	assert.Contains(t, names, "backend2")
	assert.Contains(t, names, "backend3")
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	reg := NewRegistry()
	builder := newMockBuilder("backend")

	done := make(chan bool)
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				reg.Register("backend", builder)
				reg.Has("backend")
				reg.Names()
				reg.GetCapabilities("backend")
			}
			done <- true
		}()
	}

	for i := 0; i < 10; i++ {
		<-done
	}

	assert.True(t, reg.Has("backend"))
}

func TestGlobalRegistry(t *testing.T) {
	assert.NotNil(t, DefaultRegistry)
}

func TestPackageLevelRegister(t *testing.T) {
	Register("test-pkg-backend", newMockBuilder("test-pkg-backend"))
	assert.True(t, DefaultRegistry.Has("test-pkg-backend"))
}

func TestPackageLevelRegisterWithCapabilities(t *testing.T) {
	caps := Capabilities{
		Name:            "test-pkg-caps-backend",
		SupportsRemoval: true,
	}

	RegisterWithCapabilities("test-pkg-caps-backend", newMockBuilder("test-pkg-caps-backend"), caps)

	assert.True(t, DefaultRegistry.Has("test-pkg-caps-backend"))
	retrievedCaps := GetCapabilities("test-pkg-caps-backend")
	assert.Equal(t, "test-pkg-caps-backend", retrievedCaps.Name)
	assert.True(t, retrievedCaps.SupportsRemoval)
}

func TestBuildWithDefaultRegistry(t *testing.T) {
	_, err := Build(context.Background(), "nonexistent", nil)
	assert.Error(t, err)
}
