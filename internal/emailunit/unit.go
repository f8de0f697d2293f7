package emailunit

// Kind discriminates the two unit variants.
type Kind string

const (
	KindSingle Kind = "single"
	KindGroup  Kind = "group"
)

// Invoice is one line item of a Group unit: the same four fields a Single
// unit carries, without recipient duplication.
type Invoice struct {
	EntityName    string `json:"entity_name"`
	InvoiceNumber string `json:"invoice_number"`
	Amount        string `json:"amount"`
	DueDate       string `json:"due_date"`
}

// Unit is one logical email to be produced. It is created fresh per pipeline
// run from the validated table, never mutated afterwards, and consumed exactly
// once by the renderer and assembler.
//
// A missing To address is tolerated here: rejecting bad recipients is the
// validator's job and the validator runs earlier and independently.
type Unit struct {
	Kind Kind `json:"kind"`

	To  string `json:"to"`
	CC  string `json:"cc"`
	BCC string `json:"bcc"`

	Subject       string   `json:"subject"`
	CustomMessage string   `json:"custom_message"`
	Attachments   []string `json:"attachments"`

	// Single variant fields
	EntityName    string `json:"entity_name,omitempty"`
	InvoiceNumber string `json:"invoice_number,omitempty"`
	Amount        string `json:"amount,omitempty"`
	DueDate       string `json:"due_date,omitempty"`

	// Group variant fields
	GroupName string    `json:"group_name,omitempty"`
	Invoices  []Invoice `json:"invoices,omitempty"`
}

func (u Unit) IsGroup() bool {
	return u.Kind == KindGroup
}
