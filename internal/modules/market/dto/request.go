package dto

type GiftInput struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

type ItemOutput struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Image      string `json:"image"`
	Collection string `json:"collection"`
	Rating     int    `json:"rating"`
	Price      string `json:"price"`
	Stars      int    `json:"stars"`
	Level      int    `json:"level"`
	Owner      string `json:"owner,omitempty"`
	CreatedAt  string `json:"created_at"`
}
