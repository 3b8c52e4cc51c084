package llm

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
)

// Mock returns deterministic text so the service runs without credentials.
// Output depends only on the request.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(req.Prompt))
	digest := h.Sum32()

	var b strings.Builder
	fmt.Fprintf(&b, "Generated response %08x (budget %d tokens).\n\n", digest, req.MaxTokens)
	b.WriteString("Close your eyes and take a slow breath in. [PAUSE - 5s]\n")
	b.WriteString("Let your shoulders soften as you breathe out. [PAUSE - 5s]\n")
	b.WriteString("Notice the younger you waiting patiently, and offer them your hand. [PAUSE - 10s]\n")
	b.WriteString("You are safe. You are worthy. You are loved.\n")
	return b.String(), nil
}
