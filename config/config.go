package config

// HTTPServer struct for HTTP Transport configuration
type HTTPServer struct {
	Port int `yaml:"port" json:"port" validate:"required"`
}

// Transport is a configuration for the API Transport: HTTP or anything
type Transport struct {
	HTTP HTTPServer `yaml:"http" json:"http"`
}

// Columns maps the logical field names used by the pipeline to the actual
// column headers of the uploaded CSV. Only To, EntityName and InvoiceNumber
// are mandatory, the rest may point to columns that do not exist.
type Columns struct {
	To            string `yaml:"to" json:"to" validate:"required"`
	CC            string `yaml:"cc" json:"cc"`
	BCC           string `yaml:"bcc" json:"bcc"`
	EntityName    string `yaml:"entityName" json:"entityName" validate:"required"`
	InvoiceNumber string `yaml:"invoiceNumber" json:"invoiceNumber" validate:"required"`
	Amount        string `yaml:"amount" json:"amount"`
	DueDate       string `yaml:"dueDate" json:"dueDate"`
	Attachment    string `yaml:"attachment" json:"attachment"`
	Group         string `yaml:"group" json:"group"`
	Subject       string `yaml:"subject" json:"subject"`
	CustomMessage string `yaml:"customMessage" json:"customMessage"`
}

// Validation toggles. A disabled check returns no finding at all.
type Validation struct {
	ValidateEmails   bool `yaml:"validateEmails" json:"validateEmails"`
	CheckAttachments bool `yaml:"checkAttachments" json:"checkAttachments"`
}

// Company identity rendered into every message body.
type Company struct {
	Name        string `yaml:"name" json:"name"`
	SenderName  string `yaml:"senderName" json:"senderName"`
	SenderTitle string `yaml:"senderTitle" json:"senderTitle"`
}

// Email holds sender identity, subject templates and the output format choice.
// Format is one of: eml (portable), msg (native Outlook), auto (native when the
// automation interface is reachable, portable otherwise).
type Email struct {
	From          string `yaml:"from" json:"from"`
	SubjectSingle string `yaml:"subjectSingle" json:"subjectSingle"`
	SubjectGroup  string `yaml:"subjectGroup" json:"subjectGroup"`
	Format        string `yaml:"format" json:"format" validate:"omitempty,oneof=eml msg auto"`
}

// Paths to everything the pipeline touches on disk.
type Paths struct {
	Template       string `yaml:"template" json:"template"`
	Output         string `yaml:"output" json:"output"`
	AttachmentBase string `yaml:"attachmentBase" json:"attachmentBase"`
	Banner         string `yaml:"banner" json:"banner"`
}

// Output controls message file naming.
type Output struct {
	FileNamePattern string `yaml:"fileNamePattern" json:"fileNamePattern"`
	Timestamp       bool   `yaml:"timestamp" json:"timestamp"`
}

// SessionStore selects where uploaded tables live between an upload and a
// generate call. Type inmemory needs nothing else, type redis needs Address.
type SessionStore struct {
	Type     string `yaml:"type" json:"type" validate:"omitempty,oneof=inmemory redis"`
	Address  string `yaml:"address" json:"address"`
	Password string `yaml:"password" json:"password"`
	DB       int    `yaml:"db" json:"db"`
}

// Config contains application config
type Config struct {
	Transport    Transport    `yaml:"transport" json:"transport"`
	Columns      Columns      `yaml:"csvColumns" json:"csvColumns"`
	Validation   Validation   `yaml:"validation" json:"validation"`
	Company      Company      `yaml:"company" json:"company"`
	Email        Email        `yaml:"email" json:"email"`
	Paths        Paths        `yaml:"paths" json:"paths"`
	Output       Output       `yaml:"output" json:"output"`
	SessionStore SessionStore `yaml:"sessionStore" json:"sessionStore"`
}

const (
	DefaultSubjectSingle   = "{entity_name} Invoice {invoice_number}"
	DefaultSubjectGroup    = "{group_name} Invoices {invoice_numbers}"
	DefaultFileNamePattern = "{entity}_{invoice}_{timestamp}"
	DefaultOutputDir       = "output"
	DefaultFormat          = "auto"
)

// ApplyDefaults fills the fields a YAML file may leave out, so every consumer
// can rely on non-empty values without re-deciding the defaults.
func (c *Config) ApplyDefaults() {
	if c.Email.SubjectSingle == "" {
		c.Email.SubjectSingle = DefaultSubjectSingle
	}

	if c.Email.SubjectGroup == "" {
		c.Email.SubjectGroup = DefaultSubjectGroup
	}

	if c.Email.Format == "" {
		c.Email.Format = DefaultFormat
	}

	if c.Output.FileNamePattern == "" {
		c.Output.FileNamePattern = DefaultFileNamePattern
	}

	if c.Paths.Output == "" {
		c.Paths.Output = DefaultOutputDir
	}

	if c.SessionStore.Type == "" {
		c.SessionStore.Type = "inmemory"
	}
}
