package dto

type ItemInput struct {
	Name       string `json:"name"       validate:"required,max=64"`
	Image      string `json:"image"      validate:"omitempty,max=256"`
	Collection string `json:"collection" validate:"omitempty,max=64"`
	Rating     int    `json:"rating"     validate:"gte=0,lte=5"`
	Price      string `json:"price"      validate:"required"`
	Stars      int    `json:"stars"      validate:"gte=0"`
}

type GiftInput struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

type TransferInput struct {
	ToUserID string `json:"to_user_id" validate:"required"`
}

type AdjustInput struct {
	UserID string `json:"user_id" validate:"required"`
	Delta  string `json:"delta"   validate:"required"`
}

type BanInput struct {
	UserID string `json:"user_id" validate:"required"`
	Banned bool   `json:"banned"`
}

type ResolveInput struct {
	Approve bool   `json:"approve"`
	Note    string `json:"note" validate:"omitempty,max=256"`
}
