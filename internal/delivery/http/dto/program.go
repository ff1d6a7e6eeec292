package dto

import "github.com/google/uuid"

type ProgramResponse struct {
	ID             uuid.UUID `json:"id"`
	DataSource     string    `json:"dataSource"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	Category       string    `json:"category,omitempty"`
	TargetAudience []string  `json:"targetAudience"`
	TargetLocation []string  `json:"targetLocation"`
	Keywords       []string  `json:"keywords"`
	BudgetRange    string    `json:"budgetRange,omitempty"`
	Deadline       string    `json:"deadline,omitempty"`
	SourceURL      string    `json:"sourceUrl,omitempty"`
	AttachmentURL  string    `json:"attachmentUrl,omitempty"`
	RegisteredAt   string    `json:"registeredAt"`
}
