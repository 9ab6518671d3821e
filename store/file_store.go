package store

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gofrs/flock"
	log "github.com/sirupsen/logrus"
)

// 目录锁文件名
const lockFileName = ".store.lock"

// 文件名时间戳格式
const timestampLayout = "20060102_150405"

// utf-8 BOM，方便 Excel 直接打开
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

var (
	ErrNotFound     = errors.New("文件不存在")
	ErrInvalidName  = errors.New("非法文件名")
	ErrTypeNotAllow = errors.New("不支持的文件类型")
)

// 可列出/删除的数据文件
var dataExts = []string{".csv", ".json"}

// 可下载的文件
var downloadExts = []string{".csv", ".json", ".html", ".pdf"}

// FileInfo 文件列表条目
type FileInfo struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Modified string `json:"modified"`
	modTime  time.Time
}

// FileStore 采集结果文件存储（uploads 目录）
type FileStore struct {
	dir      string
	lockPath string
	now      func() time.Time
}

// NewFileStore 创建文件存储，目录不存在时自动创建
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("存储目录不能为空")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("解析存储目录失败: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("创建存储目录失败: %w", err)
	}
	return &FileStore{
		dir:      abs,
		lockPath: filepath.Join(abs, lockFileName),
		now:      time.Now,
	}, nil
}

// Dir 存储目录绝对路径
func (s *FileStore) Dir() string {
	return s.dir
}

// TimestampedName 生成 <prefix>_YYYYMMDD_HHMMSS.<ext>
func (s *FileStore) TimestampedName(prefix, ext string) string {
	return fmt.Sprintf("%s_%s%s", prefix, s.now().Format(timestampLayout), ext)
}

// SaveCSV 写入 CSV（带 BOM），返回文件名
func (s *FileStore) SaveCSV(prefix string, header []string, rows [][]string) (string, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return "", fmt.Errorf("写入CSV表头失败: %w", err)
	}
	if err := w.WriteAll(rows); err != nil {
		return "", fmt.Errorf("写入CSV失败: %w", err)
	}

	name := s.TimestampedName(prefix, ".csv")
	if err := s.write(name, buf.Bytes()); err != nil {
		return "", err
	}
	log.Debugf("已保存CSV: %s (%d 行)", name, len(rows))
	return name, nil
}

// SaveJSON 以缩进格式保存 JSON，返回文件名
func (s *FileStore) SaveJSON(prefix string, v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("序列化JSON失败: %w", err)
	}
	name := s.TimestampedName(prefix, ".json")
	if err := s.write(name, data); err != nil {
		return "", err
	}
	return name, nil
}

// SaveFile 按给定文件名保存（报告等）
func (s *FileStore) SaveFile(name string, data []byte) error {
	if err := validateName(name); err != nil {
		return err
	}
	return s.write(name, data)
}

// withLock 持有目录锁执行 fn，每次操作使用独立的锁句柄
func (s *FileStore) withLock(fn func() error) error {
	fl := flock.New(s.lockPath)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("锁定存储目录失败: %w", err)
	}
	defer func() {
		if err := fl.Unlock(); err != nil {
			log.Warnf("释放存储锁失败: %v", err)
		}
	}()
	return fn()
}

func (s *FileStore) write(name string, data []byte) error {
	return s.withLock(func() error {
		return s.writeLocked(name, data)
	})
}

func (s *FileStore) writeLocked(name string, data []byte) error {
	tmp := filepath.Join(s.dir, "."+name+".tmp")
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	if err := os.Rename(tmp, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("保存文件失败: %w", err)
	}
	return nil
}

// List 列出数据文件（.csv/.json），最新在前
func (s *FileStore) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("读取存储目录失败: %w", err)
	}

	files := make([]FileInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !hasExt(entry.Name(), dataExts) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Name:     entry.Name(),
			Size:     info.Size(),
			Modified: info.ModTime().Format("2006-01-02T15:04:05"),
			modTime:  info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if !files[i].modTime.Equal(files[j].modTime) {
			return files[i].modTime.After(files[j].modTime)
		}
		return files[i].Name > files[j].Name
	})
	return files, nil
}

// DownloadPath 校验并返回可下载文件路径
func (s *FileStore) DownloadPath(name string) (string, error) {
	if err := validateName(name); err != nil {
		return "", err
	}
	if !hasExt(name, downloadExts) {
		return "", ErrTypeNotAllow
	}
	return s.existing(name)
}

// Delete 删除单个数据文件
func (s *FileStore) Delete(name string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if !hasExt(name, dataExts) {
		return ErrTypeNotAllow
	}
	return s.withLock(func() error {
		path, err := s.existing(name)
		if err != nil {
			return err
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("删除文件失败: %w", err)
		}
		log.Infof("删除文件: %s", name)
		return nil
	})
}

// Clear 删除全部数据文件，返回成功和失败数量
func (s *FileStore) Clear() (deleted int, failed int, err error) {
	err = s.withLock(func() error {
		files, err := s.List()
		if err != nil {
			return err
		}
		for _, f := range files {
			if err := os.Remove(filepath.Join(s.dir, f.Name)); err != nil {
				failed++
				log.Warnf("文件删除失败: %s - %v", f.Name, err)
				continue
			}
			deleted++
			log.Debugf("文件删除: %s", f.Name)
		}
		return nil
	})
	return deleted, failed, err
}

// Latest 返回指定前缀最新的文件名
func (s *FileStore) Latest(prefix, ext string) (string, error) {
	files, err := s.List()
	if err != nil {
		return "", err
	}
	for _, f := range files {
		if strings.HasPrefix(f.Name, prefix+"_") && strings.HasSuffix(f.Name, ext) {
			return f.Name, nil
		}
	}
	return "", ErrNotFound
}

// ReadCSV 读取 CSV 为按列名索引的行
func (s *FileStore) ReadCSV(name string) ([]map[string]string, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	path, err := s.existing(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取文件失败: %w", err)
	}
	return ParseCSV(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

// ReadLatestCSV 读取指定前缀最新的 CSV
func (s *FileStore) ReadLatestCSV(prefix string) ([]map[string]string, string, error) {
	name, err := s.Latest(prefix, ".csv")
	if err != nil {
		return nil, "", err
	}
	rows, err := s.ReadCSV(name)
	return rows, name, err
}

// ReadJSON 读取 JSON 文件
func (s *FileStore) ReadJSON(name string, v interface{}) error {
	if err := validateName(name); err != nil {
		return err
	}
	path, err := s.existing(name)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("读取文件失败: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("解析JSON失败: %w", err)
	}
	return nil
}

// ParseCSV 解析带表头的 CSV
func ParseCSV(r io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("解析CSV失败: %w", err)
	}
	if len(records) == 0 {
		return []map[string]string{}, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *FileStore) existing(name string) (string, error) {
	path := filepath.Join(s.dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

func validateName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	return nil
}

func hasExt(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}
