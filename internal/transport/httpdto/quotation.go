package httpdto

type CreateQuotationRequest struct {
	CustomerName  string `json:"customer_name"`
	ContactNumber string `json:"contact_number"`
	Address       string `json:"address"`
	ProductID     string `json:"product_id"`
	Quantity      int    `json:"quantity"`
}
