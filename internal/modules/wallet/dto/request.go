package dto

type DepositInput struct {
	Amount string `json:"amount" validate:"required"`
}

type WithdrawInput struct {
	Amount  string `json:"amount"  validate:"required"`
	Address string `json:"address" validate:"required,min=8,max=128"`
}

type PaymentOutput struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	Amount    string `json:"amount"`
	FiatValue string `json:"fiat_value"`
	Address   string `json:"address,omitempty"`
	Status    string `json:"status"`
	Note      string `json:"note,omitempty"`
	CreatedAt string `json:"created_at"`
}

type BalanceOutput struct {
	Balance string `json:"balance"`
}

type HistoryOutput struct {
	Text      string `json:"text"`
	CreatedAt string `json:"created_at"`
}
