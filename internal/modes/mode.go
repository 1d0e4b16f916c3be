package modes

import "fmt"

// Mode bundles the generation settings and tool permissions for one way of
// working. The zero value is not usable; construct modes through Builtin or
// the Registry.
type Mode struct {
	Name        string
	Description string

	// Temperature and MaxTokens override the provider defaults while the
	// mode is active.
	Temperature float64
	MaxTokens   int

	// AllowedTools lists tool names the mode may call. Nil means every
	// registered tool; an empty non-nil slice means none.
	AllowedTools []string

	// RequiresBranch marks modes whose changes should land on a fresh git
	// branch before any file is touched.
	RequiresBranch bool

	SystemPrompt string
}

// Allows reports whether the named tool may run under this mode.
func (m Mode) Allows(tool string) bool {
	if m.AllowedTools == nil {
		return true
	}
	for _, name := range m.AllowedTools {
		if name == tool {
			return true
		}
	}
	return false
}

// Validate checks the mode definition is internally consistent.
func (m Mode) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("mode name cannot be empty")
	}
	if m.Temperature < 0 || m.Temperature > 1 {
		return fmt.Errorf("mode %s: temperature must be in [0,1], got %g", m.Name, m.Temperature)
	}
	if m.MaxTokens <= 0 {
		return fmt.Errorf("mode %s: max tokens must be positive, got %d", m.Name, m.MaxTokens)
	}
	return nil
}

var readOnlyTools = []string{"read_file", "search_files", "list_directory"}

// Builtin returns the standard mode set.
func Builtin() []Mode {
	return []Mode{
		{
			Name:         "read",
			Description:  "Analyze and explain code without making changes",
			Temperature:  0.3,
			MaxTokens:    2000,
			AllowedTools: readOnlyTools,
			SystemPrompt: "You are a code analysis expert. Read and explain existing code " +
				"in clear, simple terms. Identify the main purpose, key functions and " +
				"patterns. Never suggest modifications or write new code.",
		},
		{
			Name:         "debug",
			Description:  "Find and fix bugs in code",
			Temperature:  0.4,
			MaxTokens:    3000,
			AllowedTools: append(append([]string{}, readOnlyTools...), "run_command"),
			SystemPrompt: "You are a debugging expert. Reproduce the reported failure, " +
				"trace it to a root cause and propose the smallest correct fix. Explain " +
				"why the bug happens before how to fix it.",
		},
		{
			Name:         "think",
			Description:  "Plan architecture and design solutions",
			Temperature:  0.8,
			MaxTokens:    8000,
			AllowedTools: []string{},
			SystemPrompt: "You are a senior software architect. Reason about design " +
				"trade-offs, propose alternatives and recommend one with justification. " +
				"Produce plans and diagrams in text, never code.",
		},
		{
			Name:           "agent",
			Description:    "Autonomous multi-step feature implementation",
			Temperature:    0.6,
			MaxTokens:      8000,
			AllowedTools:   nil, // everything
			RequiresBranch: true,
			SystemPrompt: "You are an autonomous coding agent. Break the task into steps, " +
				"execute them one at a time with the available tools, verify each step " +
				"before continuing and summarize the changes you made.",
		},
		{
			Name:           "enhance",
			Description:    "Optimize and improve existing code",
			Temperature:    0.5,
			MaxTokens:      6000,
			AllowedTools:   append(append([]string{}, readOnlyTools...), "write_file", "run_command"),
			RequiresBranch: true,
			SystemPrompt: "You are a code optimization expert. Improve readability, " +
				"performance and structure while preserving behavior. Make focused " +
				"changes and state what each one buys.",
		},
		{
			Name:         "analyze",
			Description:  "Deep analysis of code quality, patterns, and issues",
			Temperature:  0.5,
			MaxTokens:    4000,
			AllowedTools: readOnlyTools,
			SystemPrompt: "You are a senior code reviewer. Audit the code for " +
				"correctness, security and maintainability issues. Report findings " +
				"ordered by severity with file and line references. Do not modify code.",
		},
	}
}
