package dto

type SendEmailRequest struct {
	AppID       uint64   `json:"appId"`
	FromAddress string   `json:"fromAddress"`
	ToAddresses []string `json:"toAddresses"`
	Subject     string   `json:"subject"`
	BodyText    string   `json:"bodyText"`
	BodyHTML    string   `json:"bodyHtml"`
}

// OutboundMessage is the fully-resolved content handed to the MIME builder
// after the filter chain has rewritten the HTML body.
type OutboundMessage struct {
	MessageID   string
	FromAddress string
	ToAddresses []string
	Subject     string
	BodyText    string
	BodyHTML    string
}
