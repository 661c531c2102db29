package domain

// OrderRequest is the registration order submitted for one candidate.
type OrderRequest struct {
	DomainName          string   `json:"domainName"`
	Period              int      `json:"period"` // registration years
	RegistrantContactID string   `json:"registrantContactId"`
	AdminContactID      string   `json:"adminContactId"`
	TechContactID       string   `json:"techContactId"`
	BillingContactID    string   `json:"billingContactId"`
	Nameservers         []string `json:"nameservers,omitempty"` // nil when none configured

	// ClientReference is sent as an idempotency key, not in the body.
	ClientReference string `json:"-"`
}

// OrderResult is the registrar's answer to an order submission.
// Success=false with ErrorMessage is a business rejection, not a transport fault.
type OrderResult struct {
	OrderID      string `json:"orderId"`
	DomainName   string `json:"domainName"`
	Status       string `json:"status"`
	Success      bool   `json:"success"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// PurchaseOutcome is the per-candidate result emitted by a purchase run.
type PurchaseOutcome struct {
	DomainName   string  `json:"domain_name"`
	Success      bool    `json:"success"`
	OrderID      *string `json:"order_id,omitempty"`
	ErrorMessage *string `json:"error_message,omitempty"`
}
