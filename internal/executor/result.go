package executor

// Path locates a value in the response tree. Elements are field response
// names (string) or list indexes (int).
type Path []PathElement

type PathElement any

// Error is one GraphQL execution error.
type Error struct {
	Message    string         `json:"message"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e Error) Error() string { return e.Message }

// Result is one GraphQL response.
type Result struct {
	Data   any     `json:"data"`
	Errors []Error `json:"errors,omitempty"`
}
