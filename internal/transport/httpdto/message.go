package httpdto

type SendMessageRequest struct {
	ContactID     string `json:"contact_id"`
	Kind          string `json:"kind"`
	Text          string `json:"text"`
	MediaURL      string `json:"media_url"`
	Filename      string `json:"filename"`
	ProductID     string `json:"product_id"`
	ReplyToID     string `json:"reply_to_id"`
	CorrelationID string `json:"correlation_id"`
}
