package model

// WebhookAction is the mutation requested by a webhook delivery.
type WebhookAction string

const (
	ActionAdd    WebhookAction = "add"
	ActionUpdate WebhookAction = "update"
	ActionDelete WebhookAction = "delete"
)

// ResourceType identifies which knowledge-base collection a mutation targets.
type ResourceType string

const (
	ResourcePlace    ResourceType = "place"
	ResourceTip      ResourceType = "tip"
	ResourceCategory ResourceType = "category"
)

// WebhookPayload is the request body for POST /api/v1/webhook. Data is an
// opaque mapping whose required fields depend on Type.
type WebhookPayload struct {
	Action WebhookAction  `json:"action"`
	Type   ResourceType   `json:"type"`
	Data   map[string]any `json:"data"`
}

// WebhookResponse is the body returned for a processed webhook.
type WebhookResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
