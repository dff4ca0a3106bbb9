package handler

import "time"

// publicUserResponse is what any authenticated caller may see of an account.
type publicUserResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Biography string `json:"biography,omitempty"`
	Role      string `json:"role"`
}

// userResponse is the full view served to administrators and to the
// account owner.
type userResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Biography string    `json:"biography,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type paginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

type listUsersResponse struct {
	Data       any            `json:"data"`
	Pagination paginationMeta `json:"pagination"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}
