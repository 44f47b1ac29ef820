package dto

// AttachRequest is the POST body for attaching a parameter to an operation.
type AttachRequest struct {
	Owner     string `json:"owner" binding:"required"`
	Operation string `json:"operation" binding:"required"`
	Parameter string `json:"parameter" binding:"required"`

	Service           string `json:"service"`
	ServiceRegulation string `json:"serviceRegulation"`

	Position int `json:"position"`

	// PricingMode is "rate" or "client"; empty defers to the owner's
	// configuration.
	PricingMode string `json:"pricingMode"`

	UseDefaultValue bool `json:"useDefaultValue"`

	Mark   string `json:"mark"`
	Rate   string `json:"rate"`
	Client string `json:"client"`
}

// AttachResponse reports the entity sets touched by the attach.
type AttachResponse struct {
	Employees   []string `json:"employees"`
	Departments []string `json:"departments"`
	Products    []string `json:"products"`
}

// DetachRequest is the body for detaching one parameter.
type DetachRequest struct {
	Owner     string `json:"owner" binding:"required"`
	Operation string `json:"operation" binding:"required"`
	Parameter string `json:"parameter" binding:"required"`
}

// CancelRequest is the body for cancelling a whole operation's movements.
type CancelRequest struct {
	Owner     string `json:"owner" binding:"required"`
	Operation string `json:"operation" binding:"required"`
}
