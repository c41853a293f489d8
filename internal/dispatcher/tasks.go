// Package dispatcher drives automated sequence email: a poller claims
// due leads and fills the outbox, an asynq worker delivers the queued
// rows through the provider.
package dispatcher

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEmailDeliver = "email.deliver"

type EmailDeliverPayload struct {
	SendID string `json:"sendId"`
	LeadID string `json:"leadId"`
}

func NewEmailDeliverTask(payload EmailDeliverPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEmailDeliver, data), nil
}

func ParseEmailDeliverPayload(task *asynq.Task) (EmailDeliverPayload, error) {
	var payload EmailDeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EmailDeliverPayload{}, err
	}
	return payload, nil
}
