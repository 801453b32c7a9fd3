// Package tools implements the user lookup tools and binds them to MCP.
package tools

import (
	"context"
	"unicode/utf8"

	"github.com/penshort/usermcp/internal/datastore"
	"github.com/penshort/usermcp/internal/model"
)

// Tool names as advertised to MCP clients.
const (
	ToolListUsers   = "list_users"
	ToolGetUserByID = "get_user_by_id"
	ToolSearchUsers = "search_users"
)

// Error categories carried in ErrorResponse.Error.
const (
	CategoryInternal         = "Internal Error"
	CategoryNotFound         = "User not found"
	CategorySearchError      = "Search Error"
	CategorySearchFailed     = "Search Failed"
	CategoryInvalidParameter = "Invalid Parameter"
)

// Parameter bounds.
const (
	MaxPageSize     = 100
	DefaultLimit    = 5
	MaxLimit        = 20
	MinQueryLength  = 2
	defaultPage     = 1
	defaultPageSize = 10
)

// Store is the read API the facade needs from the data layer.
type Store interface {
	Paginate(ctx context.Context, page, pageSize int) (*datastore.Page, error)
	GetByID(ctx context.Context, id int64) (*model.User, bool, error)
	Search(ctx context.Context, query string, limit int) ([]model.User, error)
}

// Config holds page size settings.
type Config struct {
	// DefaultPageSize applies when page_size is omitted.
	DefaultPageSize int
	// MaxPageSize clamps accepted page sizes.
	MaxPageSize int
}

// Facade maps tool arguments onto Store queries and shapes the results.
type Facade struct {
	store Store
	cfg   Config
}

// NewFacade creates a Facade. Zero config values fall back to defaults.
func NewFacade(store Store, cfg Config) *Facade {
	if cfg.MaxPageSize <= 0 || cfg.MaxPageSize > MaxPageSize {
		cfg.MaxPageSize = MaxPageSize
	}
	if cfg.DefaultPageSize <= 0 {
		cfg.DefaultPageSize = defaultPageSize
	}
	if cfg.DefaultPageSize > cfg.MaxPageSize {
		cfg.DefaultPageSize = cfg.MaxPageSize
	}
	return &Facade{store: store, cfg: cfg}
}

// ListUsers returns one page of users in load order.
func (f *Facade) ListUsers(ctx context.Context, params map[string]any) (*Result, error) {
	page, err := intParam(params, "page", defaultPage)
	if err != nil {
		return nil, err
	}
	if page < 1 {
		return nil, invalid("page", "must be at least 1, got %d", page)
	}

	size, err := intParam(params, "page_size", int64(f.cfg.DefaultPageSize))
	if err != nil {
		return nil, err
	}
	if err := inRange("page_size", size, 1, MaxPageSize); err != nil {
		return nil, err
	}
	size = min(size, int64(f.cfg.MaxPageSize))

	p, err := f.store.Paginate(ctx, int(page), int(size))
	if err != nil {
		return failWith(CategoryInternal, err), nil
	}
	if err := validateUsers(p.Users); err != nil {
		return failWith(CategoryInternal, err), nil
	}

	return OK(&model.PaginatedResponse{
		Data:     p.Users,
		Total:    p.Total,
		Page:     int(page),
		PageSize: int(size),
	}), nil
}

// GetUserByID returns the user with the given id.
func (f *Facade) GetUserByID(ctx context.Context, params map[string]any) (*Result, error) {
	id, err := requiredIntParam(params, "user_id")
	if err != nil {
		return nil, err
	}

	user, found, err := f.store.GetByID(ctx, id)
	if err != nil {
		return failWith(CategorySearchError, err), nil
	}
	if !found {
		return Fail(CategoryNotFound, ""), nil
	}
	if err := user.Validate(); err != nil {
		return failWith(CategorySearchError, err), nil
	}

	return OK(user), nil
}

// SearchUsers returns users whose name or email contains the query.
// Queries shorter than MinQueryLength never reach the store.
func (f *Facade) SearchUsers(ctx context.Context, params map[string]any) (*Result, error) {
	query, err := requiredStringParam(params, "query")
	if err != nil {
		return nil, err
	}
	if n := utf8.RuneCountInString(query); n < MinQueryLength {
		return nil, invalid("query", "must be at least %d characters, got %d", MinQueryLength, n)
	}

	limit, err := intParam(params, "limit", DefaultLimit)
	if err != nil {
		return nil, err
	}
	if err := inRange("limit", limit, 1, MaxLimit); err != nil {
		return nil, err
	}

	users, err := f.store.Search(ctx, query, int(limit))
	if err != nil {
		return failWith(CategorySearchFailed, err), nil
	}
	if err := validateUsers(users); err != nil {
		return failWith(CategorySearchFailed, err), nil
	}
	if users == nil {
		users = []model.User{}
	}

	return OK(users), nil
}

func validateUsers(users []model.User) error {
	for i := range users {
		if err := users[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
