package models

// DeliveryStatusPayload is the status callback shape sent by the WhatsApp
// Cloud API. Only the fields needed for correlation are decoded.
type DeliveryStatusPayload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value struct {
				Statuses []struct {
					ID          string `json:"id"`
					Status      string `json:"status"`
					Timestamp   string `json:"timestamp"`
					RecipientID string `json:"recipient_id"`
				} `json:"statuses"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// StatusUpdate is one provider receipt extracted from a payload.
type StatusUpdate struct {
	ProviderMessageID string         `json:"provider_message_id"`
	Status            DeliveryStatus `json:"status"`
}

// DeliveryStatusResult summarises a processed callback batch.
type DeliveryStatusResult struct {
	Success   bool     `json:"success"`
	Updated   int      `json:"updated"`
	Unmatched []string `json:"unmatched"`
}
