package swapagent

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// CoordinationLogger records each turn of an agent run.
type CoordinationLogger interface {
	LogIteration(iteration IterationLog) error
}

// NewCoordinationLogFilePath returns a log path stamped with the current time,
// the backend model and the recipe, so runs across models are easy to compare.
func NewCoordinationLogFilePath(model, recipe string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.%s.json",
		time.Now().Unix(),
		slug(model),
		slug(recipe),
	)
}

func slug(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unnamed"
	}
	return strings.NewReplacer(":", "_", "/", "_", " ", "-").Replace(s)
}

// IterationLog is one turn of the agent state machine.
type IterationLog struct {
	Iteration   int           `json:"iteration"`
	Timestamp   time.Time     `json:"timestamp"`
	State       string        `json:"state"`
	LLMInput    string        `json:"llm_input,omitempty"`
	LLMOutput   any           `json:"llm_output"`
	ToolCalls   []ToolCallLog `json:"tool_calls,omitempty"`
	Termination string        `json:"termination,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// ToolCallLog is a single tool dispatch within an iteration.
type ToolCallLog struct {
	Name   string         `json:"name"`
	Input  map[string]any `json:"input"`
	Output map[string]any `json:"output"`
	Error  string         `json:"error,omitempty"`
}

// FileCoordinationLogger buffers iterations and writes them as one JSON
// document on Flush.
type FileCoordinationLogger struct {
	mu         sync.Mutex
	recipe     string
	iterations []IterationLog
	writer     io.Writer
}

func NewFileCoordinationLogger(writer io.Writer, recipe string) *FileCoordinationLogger {
	return &FileCoordinationLogger{
		recipe:     recipe,
		iterations: make([]IterationLog, 0),
		writer:     writer,
	}
}

func (l *FileCoordinationLogger) LogIteration(iteration IterationLog) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.iterations = append(l.iterations, iteration)
	return nil
}

// Flush writes the buffered iterations and resets the buffer.
func (l *FileCoordinationLogger) Flush() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"agent_session": map[string]any{
			"timestamp":  time.Now(),
			"recipe":     l.recipe,
			"iterations": l.iterations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal agent session log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write agent session log: %w", err)
	}

	l.iterations = l.iterations[:0]
	return nil
}

type NoOpCoordinationLogger struct{}

func NewNoOpCoordinationLogger() *NoOpCoordinationLogger {
	return &NoOpCoordinationLogger{}
}

func (nop *NoOpCoordinationLogger) LogIteration(iteration IterationLog) error {
	return nil
}

// StdoutCoordinationLogger writes each iteration as a JSON line, which is what
// CloudWatch expects from a Lambda.
type StdoutCoordinationLogger struct {
	out io.Writer
}

func NewStdoutCoordinationLogger() *StdoutCoordinationLogger {
	return &StdoutCoordinationLogger{out: os.Stdout}
}

func (l *StdoutCoordinationLogger) LogIteration(iteration IterationLog) error {
	data, err := json.Marshal(iteration)
	if err != nil {
		return fmt.Errorf("failed to marshal iteration %d: %w", iteration.Iteration, err)
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
