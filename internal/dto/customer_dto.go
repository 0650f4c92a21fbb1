package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CreateCustomerRequest struct {
	Name       string  `json:"name"        validate:"required,min=1,max=120"`
	NationalID string  `json:"national_id" validate:"required,national_id"`
	Phone      *string `json:"phone"       validate:"omitempty,max=20"`
}

type UpdateCustomerRequest struct {
	Name  *string `json:"name"  validate:"omitempty,min=1,max=120"`
	Phone *string `json:"phone" validate:"omitempty,max=20"`
}

type CustomerFilter struct {
	Name  string `form:"name"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CustomerResponse struct {
	ID         uint    `json:"id"`
	Name       string  `json:"name"`
	NationalID string  `json:"national_id"`
	Phone      *string `json:"phone"`
	CreatedAt  string  `json:"created_at"`
}

type CustomerListResponse struct {
	Data  []CustomerResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
