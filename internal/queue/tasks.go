package queue

import (
	"encoding/json"

	"github.com/licensedesk/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskContactRequestCreated 人工补发登记通知任务
	TaskContactRequestCreated = constants.TaskContactRequestCreated
	// TaskContactRequestFulfill 人工补发处理任务
	TaskContactRequestFulfill = constants.TaskContactRequestFulfill
)

// ContactRequestCreatedPayload 人工补发登记通知载荷
type ContactRequestCreatedPayload struct {
	RequestID uint   `json:"request_id"`
	OrderID   string `json:"order_id"`
	Reason    string `json:"reason"`
}

// ContactRequestFulfillPayload 人工补发处理载荷
type ContactRequestFulfillPayload struct {
	RequestID uint `json:"request_id"`
	AdminID   uint `json:"admin_id"`
}

// NewContactRequestCreatedTask 创建人工补发登记通知任务
func NewContactRequestCreatedTask(payload ContactRequestCreatedPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContactRequestCreated, body), nil
}

// NewContactRequestFulfillTask 创建人工补发处理任务
func NewContactRequestFulfillTask(payload ContactRequestFulfillPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskContactRequestFulfill, body), nil
}
