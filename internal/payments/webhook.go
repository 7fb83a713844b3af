package payments

import (
	"encoding/json"

	"github.com/pkg/errors"
)

const (
	EventChargeSuccess    = "charge.success"
	EventTransferSuccess  = "transfer.success"
	EventTransferFailed   = "transfer.failed"
	EventTransferReversed = "transfer.reversed"
)

// WebhookEvent is the outer shape of every gateway callback.
type WebhookEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// WebhookData carries the fields used from charge and transfer events.
type WebhookData struct {
	Reference     string `json:"reference"`
	Status        string `json:"status"`
	Amount        int64  `json:"amount"`
	TransferCode  string `json:"transfer_code"`
	Reason        string `json:"reason"`
	GatewayReason string `json:"gateway_response"`
}

func ParseWebhook(body []byte) (*WebhookEvent, *WebhookData, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, nil, errors.Wrap(err, "decode webhook")
	}
	var data WebhookData
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &data); err != nil {
			return nil, nil, errors.Wrap(err, "decode webhook data")
		}
	}
	return &ev, &data, nil
}
