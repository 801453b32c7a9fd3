package model

// PaginatedResponse is the success payload of list_users.
type PaginatedResponse struct {
	Data     []User `json:"data"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	// NextCursor is reserved for cursor-based paging and is always nil for now.
	NextCursor *int `json:"next_cursor"`
}

// ErrorResponse is the uniform failure envelope returned to tool callers.
type ErrorResponse struct {
	Error   string  `json:"error"`
	Details *string `json:"details"`
}

// NewErrorResponse builds an ErrorResponse. An empty details string is omitted.
func NewErrorResponse(category, details string) *ErrorResponse {
	resp := &ErrorResponse{Error: category}
	if details != "" {
		resp.Details = &details
	}
	return resp
}

// DetailsOrEmpty returns the details text, or "" when absent.
func (e *ErrorResponse) DetailsOrEmpty() string {
	if e == nil || e.Details == nil {
		return ""
	}
	return *e.Details
}
