package dto

import "github.com/Alwanly/hospital-polling/internal/models"

type UpdateResourceRequest struct {
	Total     *int `json:"total" validate:"required,gte=0"`
	Available *int `json:"available" validate:"required,gte=0"`
}

type ResourcesResponse struct {
	HasChanges       bool              `json:"hasChanges"`
	Resources        []models.Resource `json:"resources"`
	CurrentTimestamp string            `json:"currentTimestamp"`
}
