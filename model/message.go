package model

// Message is a single entry in a negotiation chat transcript. Display
// ordering is array order; the upstream endpoint owns the authoritative
// ordering and the client never re-sorts.
type Message struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Type      string `json:"type,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message type values returned by the negotiation backend
const (
	TypeGreeting     = "greeting"
	TypeCapabilities = "capabilities"
	TypeEmailDraft   = "email_draft"
	TypeNegotiation  = "negotiation"
	TypeOutreach     = "outreach"
	TypeContractStep = "contract_step"
	TypeCompletion   = "completion"
	TypeError        = "error"
	TypePlain        = "plain"
)

// RenderedMessage is the presentational form of a message. Variant is always
// one of the nine known type values; Subject and Body are populated only for
// email drafts.
type RenderedMessage struct {
	Role    string `json:"role"`
	Variant string `json:"variant"`
	Icon    string `json:"icon,omitempty"`
	Content string `json:"content"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body,omitempty"`
}

// RenderMessage maps a message to exactly one presentational variant. The
// mapping is total: unrecognized or missing types render as plain text.
func RenderMessage(m Message) RenderedMessage {
	r := RenderedMessage{Role: m.Role, Content: m.Content}

	switch m.Type {
	case TypeGreeting:
		r.Variant = TypeGreeting
	case TypeCapabilities:
		r.Variant = TypeCapabilities
	case TypeEmailDraft:
		r.Variant = TypeEmailDraft
		r.Subject, r.Body = SplitEmail(m.Content)
	case TypeNegotiation:
		r.Variant = TypeNegotiation
		r.Icon = "💰"
	case TypeOutreach:
		r.Variant = TypeOutreach
		r.Icon = "📧"
	case TypeContractStep:
		r.Variant = TypeContractStep
		r.Icon = "📄"
	case TypeCompletion:
		r.Variant = TypeCompletion
		r.Icon = "✅"
	case TypeError:
		r.Variant = TypeError
		r.Icon = "❌"
	default:
		r.Variant = TypePlain
	}

	return r
}
