package launcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sirupsen/logrus"
)

var (
	// ErrEmptyCommand 启动命令为空
	ErrEmptyCommand = errors.New("start command is empty")
)

// Starter 本地供应商启动能力
// Start 只负责把进程拉起来，就绪确认由调用方轮询探测完成
type Starter interface {
	Start(ctx context.Context) error
}

// StartFunc 函数式启动器，便于测试注入
type StartFunc func(ctx context.Context) error

func (f StartFunc) Start(ctx context.Context) error {
	return f(ctx)
}

// CommandStarter 通过外部命令启动本地推理服务
// 如 "lms server start"、"ollama serve"、"vllm serve ..."
type CommandStarter struct {
	command string
}

// NewCommandStarter 创建命令启动器
func NewCommandStarter(command string) *CommandStarter {
	return &CommandStarter{command: command}
}

// Start 启动进程并立即脱离
// 被启动的服务需要在本次选择运行结束后继续存活，因此进程不绑定 ctx、
// 不等待退出；标准输出丢弃，避免阻塞子进程
func (s *CommandStarter) Start(ctx context.Context) error {
	fields := strings.Fields(s.command)
	if len(fields) == 0 {
		return ErrEmptyCommand
	}

	// 二进制缺失时直接失败，不产生任何副作用
	path, err := exec.LookPath(fields[0])
	if err != nil {
		return fmt.Errorf("启动命令不可用: %w", err)
	}

	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("打开 %s 失败: %w", os.DevNull, err)
	}
	defer devNull.Close()

	cmd := exec.Command(path, fields[1:]...)
	cmd.Stdout = devNull
	cmd.Stderr = devNull

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("启动进程失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"command": s.command,
		"pid":     cmd.Process.Pid,
	}).Debug("🔄 本地服务进程已启动")

	// 释放进程句柄，子进程由操作系统接管
	return cmd.Process.Release()
}
