package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/licensedesk/internal/logger"
	"github.com/licensedesk/internal/provider"
	"github.com/licensedesk/internal/queue"
	"github.com/licensedesk/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskContactRequestCreated, c.handleContactRequestCreated)
	mux.HandleFunc(queue.TaskContactRequestFulfill, c.handleContactRequestFulfill)
}

func (c *Consumer) handleContactRequestCreated(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_contact_request_created_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ContactRequestCreatedPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_contact_request_created_unmarshal_failed", "error", err)
		return err
	}
	if payload.RequestID == 0 {
		logger.Debugw("worker_contact_request_created_skip_invalid_payload", "request_id", payload.RequestID)
		return nil
	}
	if c.ContactRequestRepo == nil {
		logger.Warnw("worker_contact_request_created_skip_repo_nil", "request_id", payload.RequestID)
		return nil
	}
	request, err := c.ContactRequestRepo.GetByID(payload.RequestID)
	if err != nil {
		logger.Warnw("worker_contact_request_created_fetch_failed", "request_id", payload.RequestID, "error", err)
		return err
	}
	if request == nil {
		logger.Debugw("worker_contact_request_created_skip_not_found", "request_id", payload.RequestID)
		return nil
	}
	logger.Infow("contact_request_received",
		"request_id", request.ID,
		"order_id", request.OrderID,
		"product_code", request.ProductCode,
		"reason", request.Reason,
		"has_email", request.Email != "",
		"has_phone", request.Phone != "",
	)
	return nil
}

func (c *Consumer) handleContactRequestFulfill(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_contact_request_fulfill_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ContactRequestFulfillPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_contact_request_fulfill_unmarshal_failed", "error", err)
		return err
	}
	if payload.RequestID == 0 {
		logger.Debugw("worker_contact_request_fulfill_skip_invalid_payload", "request_id", payload.RequestID)
		return nil
	}
	if c.ContactService == nil {
		logger.Warnw("worker_contact_request_fulfill_skip_service_nil", "request_id", payload.RequestID)
		return nil
	}
	result, err := c.ContactService.Fulfill(ctx, payload.RequestID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrContactRequestNotFound):
			logger.Debugw("worker_contact_request_fulfill_skip_not_found", "request_id", payload.RequestID)
			return nil
		case errors.Is(err, service.ErrContactRequestFulfilled), errors.Is(err, service.ErrContactRequestClosed):
			logger.Debugw("worker_contact_request_fulfill_skip_settled", "request_id", payload.RequestID, "error", err)
			return nil
		case errors.Is(err, service.ErrOrderBlocked), errors.Is(err, service.ErrOrderPending):
			logger.Warnw("worker_contact_request_fulfill_ineligible", "request_id", payload.RequestID, "error", err)
			return nil
		case errors.Is(err, service.ErrInventoryExhausted):
			logger.Warnw("worker_contact_request_fulfill_inventory_short", "request_id", payload.RequestID, "admin_id", payload.AdminID)
			return nil
		case errors.Is(err, service.ErrOrderNotFound), errors.Is(err, service.ErrConfiguration):
			logger.Errorw("worker_contact_request_fulfill_unrecoverable", "request_id", payload.RequestID, "error", err)
			return nil
		default:
			logger.Warnw("worker_contact_request_fulfill_failed", "request_id", payload.RequestID, "error", err)
			return err
		}
	}
	licenses := 0
	if result != nil {
		licenses = len(result.Licenses)
	}
	logger.Infow("worker_contact_request_fulfill_done",
		"request_id", payload.RequestID,
		"admin_id", payload.AdminID,
		"licenses", licenses,
	)
	return nil
}
