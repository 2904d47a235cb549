package dto

type MarkReadInput struct {
	IDs []string `json:"ids" validate:"required,min=1"`
}

type NotificationOutput struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Payload   map[string]any `json:"payload,omitempty"`
	Read      bool           `json:"read"`
	CreatedAt string         `json:"created_at"`
}
