package domain

// PaymentCard carries the raw card fields for a single charge attempt.
// Never persisted and never logged.
type PaymentCard struct {
	HolderName string `json:"holderName"`
	Number     string `json:"number"`
	ExpMonth   int    `json:"expMonth"`
	ExpYear    int    `json:"expYear"`
	CVC        string `json:"cvc"`
}
