package launcher

import (
	"context"
	"time"

	"github.com/maria-ai/maria-selector/internal/probe"
	"github.com/sirupsen/logrus"
)

// 轮询默认值
const (
	DefaultPollInterval = 2 * time.Second
	DefaultStartTimeout = 30 * time.Second
)

// WaitHealthy 启动后的就绪确认：固定间隔轮询探测，直到健康或超出最大时长
// 返回最后一次探测结果与是否在时限内变为健康；超时不是错误，
// 由调用方按启动失败记录并继续后续候选
func WaitHealthy(ctx context.Context, prober probe.Prober, interval, timeout time.Duration) (probe.Status, bool) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultStartTimeout
	}

	deadline := time.Now().Add(timeout)
	var last probe.Status

	for attempt := 1; ; attempt++ {
		last = prober.Probe(ctx)
		if last.Healthy {
			logrus.WithFields(logrus.Fields{
				"attempt": attempt,
			}).Debug("✅ 服务就绪")
			return last, true
		}

		// 下一轮开始前就会越过截止时间则直接放弃
		if !time.Now().Add(interval).Before(deadline) {
			return last, false
		}

		select {
		case <-ctx.Done():
			return last, false
		case <-time.After(interval):
		}
	}
}
