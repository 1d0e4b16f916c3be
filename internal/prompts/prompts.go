// Package prompts holds the system instructions and prompt builders for each
// CLI command. Keeping them in one place makes wording changes reviewable.
package prompts

import (
	"fmt"
	"sort"
	"strings"
)

// ChatSystem is the assistant persona for free-form chat.
const ChatSystem = "You are Rocket, an expert AI coding assistant. " +
	"Help developers with code generation, debugging, optimization, and explanations. " +
	"Provide practical, production-ready solutions. " +
	"When showing code, use proper markdown formatting with language identifiers."

// System returns the system instruction for a command, specialized to a
// programming language. Unknown commands fall back to a generic developer
// persona.
func System(command, language string) string {
	switch command {
	case "chat":
		return ChatSystem
	case "generate":
		return fmt.Sprintf("You are an expert %s developer. "+
			"Generate production-ready, well-documented code. "+
			"Include error handling and best practices. "+
			"Format code with proper markdown code blocks.", language)
	case "explain":
		return fmt.Sprintf("You are an expert %s code analyst. "+
			"Explain the code clearly, line by line. "+
			"Describe what it does, why it works, and any potential issues. "+
			"Use simple language for beginners but be thorough.", language)
	case "debug":
		return fmt.Sprintf("You are an expert %s debugger. "+
			"Analyze the error or issue and provide clear, actionable solutions. "+
			"Explain the root cause and show how to fix it with code examples. "+
			"Include prevention tips for the future.", language)
	case "optimize":
		return fmt.Sprintf("You are an expert %s code optimizer. "+
			"Provide specific suggestions with code examples. "+
			"Explain the benefits of each optimization. "+
			"Use best practices and design patterns.", language)
	case "review":
		return fmt.Sprintf("You are a senior %s code reviewer. "+
			"Audit the code for correctness, security vulnerabilities, performance "+
			"problems and deviations from best practices. "+
			"Order findings by severity and reference the relevant lines.", language)
	default:
		return fmt.Sprintf("You are an expert %s developer.", language)
	}
}

// Generate builds the user prompt for code generation.
func Generate(description, language string) string {
	return fmt.Sprintf("Generate %s code for: %s", language, description)
}

// Explain builds the user prompt for code explanation.
func Explain(code, language string) string {
	return fmt.Sprintf("Explain this %s code:\n\n```%s\n%s\n```", language, language, code)
}

// Debug builds the user prompt for debugging. Either code or errText may be
// empty.
func Debug(code, errText, language string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Debug this %s issue:\n", language)
	if errText != "" {
		fmt.Fprintf(&b, "\nError:\n%s\n", errText)
	}
	if code != "" {
		fmt.Fprintf(&b, "\nCode:\n```%s\n%s\n```\n", language, code)
	}
	return b.String()
}

// Optimize builds the user prompt for optimization. focus names the quality
// to improve, for example "performance" or "readability".
func Optimize(code, language, focus string) string {
	return fmt.Sprintf("Optimize this %s code for %s:\n\n```%s\n%s\n```\n\n"+
		"Provide specific optimization suggestions with improved code.",
		language, focus, language, code)
}

// Review builds the user prompt for a code review of one or more files.
func Review(files map[string]string, language string) string {
	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	fmt.Fprintf(&b, "Review the following %s code:\n", language)
	for _, path := range paths {
		fmt.Fprintf(&b, "\n--- %s ---\n```%s\n%s\n```\n", path, language, files[path])
	}
	b.WriteString("\nReport issues ordered by severity with concrete fixes.")
	return b.String()
}
