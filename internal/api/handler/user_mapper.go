package handler

import (
	"github.com/seedlearn/seed-api/internal/core/domain"
	"github.com/seedlearn/seed-api/internal/core/ports"
)

// --- Domain → Response ---

func toRegisterResponse(u *domain.User) registerResponse {
	return registerResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Biography: u.Biography,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func toPublicUserResponse(u *domain.User) publicUserResponse {
	return publicUserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Biography: u.Biography,
		Role:      string(u.Role),
	}
}

// toUserView picks the full view for administrators and the public one for
// everybody else.
func toUserView(u *domain.User, full bool) any {
	if full {
		return toUserResponse(u)
	}
	return toPublicUserResponse(u)
}

func toListUsersResponse(res *ports.ListUsersResult, full bool) listUsersResponse {
	items := make([]any, 0, len(res.Items))
	for _, u := range res.Items {
		items = append(items, toUserView(u, full))
	}
	return listUsersResponse{
		Data: items,
		Pagination: paginationMeta{
			Page:       res.Page,
			Limit:      res.Limit,
			Total:      res.Total,
			TotalPages: res.TotalPages,
		},
	}
}
