package stage

import "context"

// --- MockLLMClient ---

type CompletionCall struct {
	System string
	User   string
}

type MockLLMClient struct {
	CompleteFunc           func(ctx context.Context, prompt string) (string, error)
	CompleteWithSystemFunc func(ctx context.Context, sys, user string) (string, error)

	// State for verification
	Calls []CompletionCall
}

func (m *MockLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	m.Calls = append(m.Calls, CompletionCall{User: prompt})
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt)
	}
	return "", nil
}

func (m *MockLLMClient) CompleteWithSystem(ctx context.Context, sys, user string) (string, error) {
	m.Calls = append(m.Calls, CompletionCall{System: sys, User: user})
	if m.CompleteWithSystemFunc != nil {
		return m.CompleteWithSystemFunc(ctx, sys, user)
	}
	return "", nil
}
