package dto

type RegisterInput struct {
	Username string `json:"username" validate:"required,min=3,max=32"`
	Password string `json:"password" validate:"required,min=4,max=72"`
	Display  string `json:"display"  validate:"omitempty,max=64"`
	Contact  string `json:"contact"  validate:"omitempty,max=128"`
}

type LoginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ProfileOutput struct {
	UserID    string   `json:"user_id"`
	Username  string   `json:"username"`
	Display   string   `json:"display"`
	Contact   string   `json:"contact"`
	Role      string   `json:"role"`
	Balance   string   `json:"balance"`
	Items     []string `json:"items"`
	GiftCount int      `json:"gift_count"`
	Banned    bool     `json:"banned"`
}

type AuthOutput struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Token    string `json:"token"`
}
