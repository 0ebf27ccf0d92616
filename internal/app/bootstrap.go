package app

import (
	"errors"

	"github.com/licensedesk/internal/config"
	"github.com/licensedesk/internal/provider"
	"github.com/licensedesk/internal/router"
	"github.com/licensedesk/internal/worker"

	"go.uber.org/zap"
)

// BuildRunner 按启动模式装配服务
// all 模式下队列未启用时只运行 HTTP，人工补发登记仍落库，仅不再异步通知
func BuildRunner(cfg *config.Config, mode string, log *zap.SugaredLogger) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	mode, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if mode == ModeWorker && !cfg.Queue.Enabled {
		return nil, errors.New("worker mode requires queue.enabled")
	}

	container := provider.NewContainer(cfg)
	var services []Service

	if mode == ModeAll || mode == ModeAPI {
		services = append(services, NewHTTPService(cfg.Server, router.SetupRouter(cfg, container)))
	}

	if (mode == ModeAll || mode == ModeWorker) && cfg.Queue.Enabled {
		workerService, err := worker.NewService(&cfg.Queue, worker.NewConsumer(container))
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	} else if mode == ModeAll {
		log.Warnw("app_worker_skipped_queue_disabled")
	}

	runner := NewRunner(services...)
	if len(runner.services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}
	return runner, nil
}

// Run 应用启动入口
func Run(opts Options) error {
	if opts.Config == nil {
		return errors.New("config is nil")
	}
	if _, err := ParseMode(opts.Mode); err != nil {
		return err
	}
	opts = normalizeOptions(opts)

	runner, err := BuildRunner(opts.Config, opts.Mode, opts.Logger)
	if err != nil {
		return err
	}
	opts.Logger.Infow("app_start",
		"mode", opts.Mode,
		"services", runner.Services(),
		"getcid_enabled", opts.Config.Activation.GetCID.Enabled,
	)
	return RunWithOptions(runner, opts)
}
