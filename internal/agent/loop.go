package agent

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/warden-ai/warden/internal/provider"
)

// runAgentLoop executes the core agentic loop:
//  1. Send messages to the LLM via streaming Chat()
//  2. Collect text deltas (stream to UI) and tool calls
//  3. If tool calls exist, execute them, append results to history, and loop
//  4. If no tool calls, return (wait for next user input)
func (a *Agent) runAgentLoop(ctx context.Context) error {
	maxIter := a.config.MaxIterations // 0 = unlimited

	guard := &repeatDetector{}

	for iteration := 0; maxIter == 0 || iteration < maxIter; iteration++ {
		if ctx.Err() != nil {
			a.io.SystemMessage("Interrupted.")
			return nil
		}

		req := &provider.ChatRequest{
			Model:        a.config.Model,
			Messages:     a.messages,
			Tools:        a.buildToolSchemas(),
			SystemPrompt: a.systemPrompt,
			MaxTokens:    8192,
		}

		var textContent strings.Builder
		var toolCalls []*provider.ToolCallRequest
		var streamErr error

		// Retry loop for transient API errors.
		for attempt := range maxRetries + 1 {
			textContent.Reset()
			toolCalls = nil
			streamErr = nil

			events, err := a.provider.Chat(ctx, req)
			if err != nil {
				if ctx.Err() != nil {
					a.io.SystemMessage("Interrupted.")
					return nil
				}
				if attempt < maxRetries && isRetryableError(err) {
					delay := retryDelay(attempt)
					a.io.SystemMessage(formatRetryMessage(attempt, maxRetries, delay, err))
					if sleepErr := sleepWithContext(ctx, delay); sleepErr != nil {
						a.io.SystemMessage("Interrupted.")
						return nil
					}
					continue
				}
				return fmt.Errorf("LLM call failed: %w", err)
			}

			a.io.ThinkingStart()

			receivedContent := false
			for event := range events {
				if ctx.Err() != nil {
					break
				}
				switch event.Type {
				case provider.EventTextDelta:
					receivedContent = true
					a.io.TextDelta(event.TextDelta)
					textContent.WriteString(event.TextDelta)

				case provider.EventToolCallDone:
					receivedContent = true
					toolCalls = append(toolCalls, event.ToolCall)

				case provider.EventDone:
					if event.Usage != nil {
						a.tokensUsed += event.Usage.InputTokens + event.Usage.OutputTokens
						a.io.SetTokens(a.tokensUsed)
					}

				case provider.EventError:
					streamErr = event.Error
				}
			}

			// If user cancelled during streaming, keep the partial text in
			// history and exit gracefully.
			if ctx.Err() != nil {
				full := textContent.String()
				a.io.TextDone(full)
				if full != "" {
					a.messages = append(a.messages, buildAssistantMessage(full, nil))
				}
				a.io.SystemMessage("Interrupted.")
				return nil
			}

			// Stream error before any content: retry if possible.
			if streamErr != nil && !receivedContent && attempt < maxRetries && isRetryableError(streamErr) {
				delay := retryDelay(attempt)
				a.io.SystemMessage(formatRetryMessage(attempt, maxRetries, delay, streamErr))
				if sleepErr := sleepWithContext(ctx, delay); sleepErr != nil {
					a.io.SystemMessage("Interrupted.")
					return nil
				}
				continue
			}

			// Stream error after content was received: can't retry safely.
			if streamErr != nil {
				return fmt.Errorf("stream error: %w", streamErr)
			}

			break // success
		}

		full := textContent.String()
		a.io.TextDone(full)

		a.messages = append(a.messages, buildAssistantMessage(full, toolCalls))

		if len(toolCalls) == 0 {
			return nil
		}

		if maxIter > 0 && iteration == maxIter-1 {
			a.io.SystemMessage(fmt.Sprintf(
				"warning: reached max iterations (%d), stopping", maxIter))
			return nil
		}

		// Catch the model issuing identical tool calls repeatedly.
		switch guard.check(toolCalls) {
		case loopWarn:
			a.io.SystemMessage("warning: repeated identical tool calls detected, injecting hint to model")
			a.messages = append(a.messages, provider.Message{
				Role: provider.RoleUser,
				Content: []provider.Content{{
					Type: provider.ContentTypeText,
					Text: "[SYSTEM] You have been issuing the same tool calls repeatedly. " +
						"Try a different approach or stop calling tools.",
				}},
			})
		case loopStop:
			a.io.SystemMessage("error: same tool calls repeated too many times, stopping")
			return nil
		}

		toolResults, interrupted := a.executeToolCalls(ctx, toolCalls)
		a.messages = append(a.messages, provider.Message{
			Role:    provider.RoleUser,
			Content: toolResults,
		})

		// If the user cancelled during tool execution, stop the loop and
		// return to user input. The partial results are already in the
		// message history for context continuity.
		if interrupted {
			a.io.SystemMessage("Interrupted.")
			return nil
		}
	}
	return nil
}

// buildAssistantMessage creates a history message from the LLM response.
func buildAssistantMessage(text string, toolCalls []*provider.ToolCallRequest) provider.Message {
	var contents []provider.Content

	if text != "" {
		contents = append(contents, provider.Content{
			Type: provider.ContentTypeText,
			Text: text,
		})
	}

	for _, tc := range toolCalls {
		contents = append(contents, provider.Content{
			Type:      provider.ContentTypeToolUse,
			ToolUseID: tc.ID,
			ToolName:  tc.Name,
			ToolInput: tc.Input,
		})
	}

	return provider.Message{Role: provider.RoleAssistant, Content: contents}
}

// executeToolCalls runs tool calls and returns tool_result content blocks.
// When multiple calls are present, they execute concurrently via goroutines;
// the executor serializes any confirmation prompts. Results keep the same
// order as the input calls. The second return value is true if the user
// cancelled a confirmation during execution.
func (a *Agent) executeToolCalls(ctx context.Context, calls []*provider.ToolCallRequest) ([]provider.Content, bool) {
	// Single call: run inline (no goroutine overhead).
	if len(calls) == 1 {
		return a.executeSingleToolCall(ctx, calls[0])
	}

	resultSlots := make([]*provider.Content, len(calls))
	var interrupted atomic.Bool
	var wg sync.WaitGroup

	for i, call := range calls {
		wg.Add(1)
		go func(idx int, c *provider.ToolCallRequest) {
			defer wg.Done()

			// If another call was cancelled, skip this one.
			if interrupted.Load() {
				return
			}

			a.io.ToolStart(c.ID, c.Name, string(c.Input))
			result := a.executor.Execute(ctx, c.Name, c.Input)
			a.io.ToolDone(c.ID, c.Name, result.Content, result.IsError)

			resultSlots[idx] = &provider.Content{
				Type:       provider.ContentTypeToolResult,
				ToolUseID:  c.ID,
				ToolResult: result.Content,
				IsError:    result.IsError,
			}

			if result.UserCancelled {
				interrupted.Store(true)
			}
		}(i, call)
	}

	wg.Wait()

	// Assemble results in order, filling in cancelled placeholders for skipped calls.
	results := make([]provider.Content, 0, len(calls))
	for i, call := range calls {
		if resultSlots[i] != nil {
			results = append(results, *resultSlots[i])
			continue
		}
		results = append(results, provider.Content{
			Type:       provider.ContentTypeToolResult,
			ToolUseID:  call.ID,
			ToolResult: "[User cancelled this turn — tool was not executed. Do not retry unless the user asks.]",
			IsError:    false,
		})
	}

	return results, interrupted.Load()
}

// executeSingleToolCall handles the simple case of a single tool call (no concurrency).
func (a *Agent) executeSingleToolCall(ctx context.Context, call *provider.ToolCallRequest) ([]provider.Content, bool) {
	a.io.ToolStart(call.ID, call.Name, string(call.Input))
	result := a.executor.Execute(ctx, call.Name, call.Input)
	a.io.ToolDone(call.ID, call.Name, result.Content, result.IsError)

	results := []provider.Content{{
		Type:       provider.ContentTypeToolResult,
		ToolUseID:  call.ID,
		ToolResult: result.Content,
		IsError:    result.IsError,
	}}
	return results, result.UserCancelled
}

// buildToolSchemas converts the executor's registry tools into provider.ToolSchema.
func (a *Agent) buildToolSchemas() []provider.ToolSchema {
	registryTools := a.executor.Registry().All()
	schemas := make([]provider.ToolSchema, 0, len(registryTools))
	for _, t := range registryTools {
		schemas = append(schemas, provider.ToolSchema{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}
	return schemas
}
