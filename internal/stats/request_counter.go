package stats

import (
	"sync"
	"sync/atomic"
	"time"
)

// RequestCounter 请求计数器
// 内存计数 + 双时间窗口滑动统计，QPS 由当前窗口与上一窗口加权得出
type RequestCounter struct {
	totalRequests int64 // 总请求数（原子操作）

	windowMutex    sync.RWMutex
	currentWindow  timeWindow
	previousWindow timeWindow
	windowDuration time.Duration

	stopRotate chan struct{}
	closeOnce  sync.Once
}

// timeWindow 时间窗口
type timeWindow struct {
	count     int64
	startTime time.Time
}

// NewRequestCounter 创建请求计数器并启动窗口滚动协程
func NewRequestCounter(windowDuration time.Duration) *RequestCounter {
	if windowDuration <= 0 {
		windowDuration = 60 * time.Second
	}

	counter := &RequestCounter{
		windowDuration: windowDuration,
		currentWindow:  timeWindow{startTime: time.Now()},
		previousWindow: timeWindow{startTime: time.Now().Add(-windowDuration)},
		stopRotate:     make(chan struct{}),
	}

	go counter.rotateWindows()

	return counter
}

// Increment 增加请求计数
func (rc *RequestCounter) Increment() {
	atomic.AddInt64(&rc.totalRequests, 1)

	rc.windowMutex.Lock()
	rc.currentWindow.count++
	rc.windowMutex.Unlock()
}

// GetTotal 获取总请求数
func (rc *RequestCounter) GetTotal() int64 {
	return atomic.LoadInt64(&rc.totalRequests)
}

// GetQPS 获取当前每秒请求数
func (rc *RequestCounter) GetQPS() float64 {
	rc.windowMutex.RLock()
	defer rc.windowMutex.RUnlock()

	elapsed := time.Since(rc.currentWindow.startTime).Seconds()
	if elapsed <= 0 {
		elapsed = 1 // 避免除零
	}
	currentQPS := float64(rc.currentWindow.count) / elapsed

	// 当前窗口尚未走满时，按剩余占比混入上一窗口的速率
	windowSeconds := rc.windowDuration.Seconds()
	if elapsed < windowSeconds {
		previousWeight := (windowSeconds - elapsed) / windowSeconds
		previousQPS := float64(rc.previousWindow.count) / windowSeconds
		return currentQPS*(1-previousWeight) + previousQPS*previousWeight
	}

	return currentQPS
}

// Close 停止窗口滚动协程
func (rc *RequestCounter) Close() {
	rc.closeOnce.Do(func() {
		close(rc.stopRotate)
	})
}

// rotateWindows 按窗口时长定期滚动
func (rc *RequestCounter) rotateWindows() {
	ticker := time.NewTicker(rc.windowDuration)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rc.windowMutex.Lock()
			rc.previousWindow = rc.currentWindow
			rc.currentWindow = timeWindow{startTime: time.Now()}
			rc.windowMutex.Unlock()
		case <-rc.stopRotate:
			return
		}
	}
}
