package scheduler

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskRottingScan = "pipeline.rotting.scan"

type RottingScanPayload struct {
	RequestedAt time.Time `json:"requestedAt"`
}

func NewRottingScanTask(payload RottingScanPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRottingScan, data), nil
}

func ParseRottingScanPayload(task *asynq.Task) (RottingScanPayload, error) {
	var payload RottingScanPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return RottingScanPayload{}, err
	}
	return payload, nil
}
