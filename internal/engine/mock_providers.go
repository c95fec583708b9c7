package engine

import (
	"context"
	"sync"

	"github.com/hmallory/toytill/internal/identify"
	"github.com/hmallory/toytill/internal/model"
)

// MockProvider is a scripted identification provider for tests.
type MockProvider struct {
	ProviderName string
	Identity     *model.Identity
	Err          error
	Delay        func()
	mu           sync.Mutex
	calls        int
}

// TryIdentify returns the scripted result and counts the call.
func (m *MockProvider) TryIdentify(_ context.Context, _ identify.Capture) (*model.Identity, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Delay != nil {
		m.Delay()
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Identity, nil
}

// Name identifies the mock in logs.
func (m *MockProvider) Name() string {
	if m.ProviderName == "" {
		return "mock"
	}
	return m.ProviderName
}

// Calls returns how many times TryIdentify ran.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockSpriteResolver is a scripted sprite resolver for tests.
type MockSpriteResolver struct {
	State model.SpriteState
	Err   error
	Gate  chan struct{} // when set, Resolve blocks until the gate closes
	mu    sync.Mutex
	calls int
}

// Resolve returns the scripted state and counts the call.
func (m *MockSpriteResolver) Resolve(_ context.Context, _ string, category model.Category) (model.SpriteState, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.Gate != nil {
		<-m.Gate
	}
	if m.Err != nil {
		return model.SpriteState{}, m.Err
	}
	if m.State.Kind == "" {
		return model.PlaceholderSprite(category.PlaceholderSymbol()), nil
	}
	return m.State, nil
}

// Calls returns how many times Resolve ran.
func (m *MockSpriteResolver) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
