package mcp

const (
	// ToolSearchDocuments is the name of the search_documents MCP tool
	ToolSearchDocuments = "search_documents"

	// ToolSaveText is the name of the save_text MCP tool
	ToolSaveText = "save_text"

	// DefaultSearchLimit is the number of results returned when a
	// search_documents request does not set one
	DefaultSearchLimit = 4

	// MaxSearchLimit caps the limit of a search_documents request
	MaxSearchLimit = 50

	StatusSuccess = "success"
	StatusError   = "error"
)

// SearchDocumentsRequest defines the input schema for search_documents tool
type SearchDocumentsRequest struct {
	// Query is the question or keywords to search for
	Query string `json:"query"`

	// FileName restricts results to chunks of this source file
	FileName string `json:"file_name"`

	// Limit is the maximum number of results to return
	Limit int `json:"limit,omitempty"`
}

// SearchHit is a single search_documents result
type SearchHit struct {
	Content    string  `json:"content"`
	FileName   string  `json:"file_name"`
	Score      float32 `json:"score"`
	Similarity float32 `json:"similarity"`
	Verbatim   bool    `json:"verbatim"`
}

// SearchDocumentsResponse defines the output schema for search_documents tool
type SearchDocumentsResponse struct {
	// Status indicates the result of the operation ("success" or "error")
	Status string `json:"status"`

	Results []SearchHit `json:"results"`

	// Error contains an error message if Status is "error"
	Error string `json:"error,omitempty"`
}

// SaveTextRequest defines the input schema for save_text tool
type SaveTextRequest struct {
	// FileName is recorded as the file_name of every saved chunk
	FileName string `json:"file_name"`

	// Texts are saved as individual chunks, in order
	Texts []string `json:"texts"`
}

// SaveTextResponse defines the output schema for save_text tool
type SaveTextResponse struct {
	Status string `json:"status"`
	Saved  int    `json:"saved"`
	Error  string `json:"error,omitempty"`
}
