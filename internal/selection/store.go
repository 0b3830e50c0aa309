package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/maria-ai/maria-selector/internal/selector"
	"github.com/sirupsen/logrus"
)

// DefaultFileName 默认的选择结果文件名
const DefaultFileName = "selection.json"

var (
	// ErrNoSelection 尚无持久化的选择结果
	ErrNoSelection = errors.New("selection result not found")
)

// Store 选择结果的文件存取
// 写入走同目录临时文件加改名，读者任何时刻看到的都是完整的 JSON 文档
type Store struct {
	path string
}

// NewStore 创建指向给定路径的存取器
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path 返回结果文件路径
func (s *Store) Path() string {
	return s.path
}

// Save 持久化选择结果
func (s *Store) Save(result *selector.SelectionResult) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("创建结果目录失败: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("序列化选择结果失败: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".selection-*.json")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("写入选择结果失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("写入选择结果失败: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("替换结果文件失败: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"path":   s.path,
		"run_id": result.RunID,
	}).Debug("选择结果已持久化")

	return nil
}

// Load 读取最近一次持久化的选择结果
func (s *Store) Load() (*selector.SelectionResult, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSelection
		}
		return nil, fmt.Errorf("读取结果文件失败: %w", err)
	}

	var result selector.SelectionResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("解析结果文件失败: %w", err)
	}

	return &result, nil
}

// Fresh 若存在且仍在有效窗口内则返回缓存的结果
func (s *Store) Fresh(window time.Duration) (*selector.SelectionResult, bool) {
	result, err := s.Load()
	if err != nil {
		return nil, false
	}
	if window <= 0 {
		return nil, false
	}
	if time.Since(result.Timestamp) > window {
		return nil, false
	}
	return result, true
}
