package gateway

// SendResult carries the provider's identifier for an accepted message.
// The external id is the durable dedup key and must always be recorded.
type SendResult struct {
	ExternalID string
}

// InboundMessage is the canonical, provider-agnostic shape of one inbound
// message after webhook normalization.
type InboundMessage struct {
	SenderPhone      string
	SenderName       string
	ExternalID       string
	Kind             string
	Text             string
	MediaURL         string
	Caption          string
	QuotedExternalID string
}

// Graph API request payloads.

type textPayload struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Text             textBody `json:"text"`
}

type textBody struct {
	Body string `json:"body"`
}

type imagePayload struct {
	MessagingProduct string    `json:"messaging_product"`
	To               string    `json:"to"`
	Type             string    `json:"type"`
	Image            mediaLink `json:"image"`
}

type documentPayload struct {
	MessagingProduct string       `json:"messaging_product"`
	To               string       `json:"to"`
	Type             string       `json:"type"`
	Document         documentLink `json:"document"`
}

type mediaLink struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

type documentLink struct {
	Link     string `json:"link"`
	Filename string `json:"filename,omitempty"`
	Caption  string `json:"caption,omitempty"`
}

type sendResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// Graph API webhook payload. Only the fields the normalizer reads.

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value webhookValue `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type webhookValue struct {
	Messages []webhookMessage `json:"messages"`
	Contacts []struct {
		WaID    string `json:"wa_id"`
		Profile struct {
			Name string `json:"name"`
		} `json:"profile"`
	} `json:"contacts"`
}

type webhookMessage struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Text *struct {
		Body string `json:"body"`
	} `json:"text"`
	Image    *webhookMedia `json:"image"`
	Video    *webhookMedia `json:"video"`
	Audio    *webhookMedia `json:"audio"`
	Document *webhookMedia `json:"document"`
	Context  *struct {
		ID string `json:"id"`
	} `json:"context"`
}

type webhookMedia struct {
	Link    string `json:"link"`
	Caption string `json:"caption"`
}
