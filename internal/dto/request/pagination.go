package request

import "contacts-api/pkg/utils"

type PaginatedRequest struct {
	Skip  int `json:"skip" validate:"min=0"`
	Limit int `json:"limit" validate:"min=1,max=100"`
}

// Normalize clamps skip and limit into the accepted range.
func (p PaginatedRequest) Normalize() PaginatedRequest {
	p.Skip, p.Limit = utils.NormalizeSkipLimit(p.Skip, p.Limit)
	return p
}
