package agent

import "github.com/tmc/langchaingo/llms"

// Tools returns the tool definitions offered to the model on every request.
func Tools() []llms.Tool {
	return []llms.Tool{
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "current_time",
				Description: "Get the current date and time, optionally in a specific timezone",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"timezone": map[string]any{
							"type":        "string",
							"description": "IANA timezone name, e.g. America/Chicago. Defaults to the server timezone.",
						},
					},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "calculator",
				Description: "Perform basic arithmetic on two numbers",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"op": map[string]any{
							"type": "string",
							"enum": []string{"add", "subtract", "multiply", "divide"},
						},
						"a": map[string]any{"type": "number"},
						"b": map[string]any{"type": "number"},
					},
					"required": []string{"op", "a", "b"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "search_threads",
				Description: "Search past conversation threads by title or message content",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"query": map[string]any{
							"type":        "string",
							"description": "Text to look for",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        "read_thread",
				Description: "Read the messages of a past conversation thread",
				Parameters: map[string]any{
					"type": "object",
					"properties": map[string]any{
						"thread_id": map[string]any{
							"type":        "string",
							"description": "The id of the thread to read",
						},
					},
					"required": []string{"thread_id"},
				},
			},
		},
	}
}
