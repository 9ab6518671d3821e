package collector

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/model"
)

const (
	mb = 1024 * 1024
	gb = 1024 * mb

	topProcesses = 10
)

// SystemInfoCollector 系统信息采集
type SystemInfoCollector struct {
	cpuInterval time.Duration
}

// NewSystemInfoCollector 创建系统信息采集器
func NewSystemInfoCollector() *SystemInfoCollector {
	return &SystemInfoCollector{cpuInterval: time.Second}
}

func (c *SystemInfoCollector) Kind() model.Kind { return model.KindSystemInfo }

func (c *SystemInfoCollector) Header() []string { return model.SystemInfoItem{}.CSVHeader() }

// Collect 各项信息单独采集，部分失败只记录日志
func (c *SystemInfoCollector) Collect(ctx context.Context, _ model.CollectOptions) ([]model.Record, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取主机信息失败: %w", err)
	}

	items := []model.SystemInfoItem{
		{
			Category: "OS",
			Name:     "Operating System",
			Value:    fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion),
			Details:  fmt.Sprintf("%s %s (%s)", info.OS, info.KernelVersion, info.KernelArch),
		},
		{
			Category: "Runtime",
			Name:     "Go Version",
			Value:    runtime.Version(),
			Details:  fmt.Sprintf("%s/%s", runtime.Compiler, runtime.GOARCH),
		},
	}

	if cpuItems, err := c.cpuItems(ctx); err != nil {
		log.Warnf("获取CPU信息失败: %v", err)
	} else {
		items = append(items, cpuItems...)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		log.Warnf("获取内存信息失败: %v", err)
	} else {
		items = append(items,
			model.SystemInfoItem{Category: "Memory", Name: "Total RAM", Value: fmt.Sprintf("%d GB", vm.Total/gb), Details: fmt.Sprintf("%d MB", vm.Total/mb)},
			model.SystemInfoItem{Category: "Memory", Name: "Used RAM", Value: fmt.Sprintf("%d GB (%.1f%%)", vm.Used/gb, vm.UsedPercent), Details: fmt.Sprintf("%d MB used", vm.Used/mb)},
			model.SystemInfoItem{Category: "Memory", Name: "Available RAM", Value: fmt.Sprintf("%d GB", vm.Available/gb), Details: fmt.Sprintf("%d MB available", vm.Available/mb)},
		)
	}

	if du, err := disk.UsageWithContext(ctx, rootDisk()); err != nil {
		log.Warnf("获取磁盘信息失败: %v", err)
	} else {
		items = append(items,
			model.SystemInfoItem{Category: "Storage", Name: "Total Disk", Value: fmt.Sprintf("%d GB", du.Total/gb), Details: fmt.Sprintf("%d MB", du.Total/mb)},
			model.SystemInfoItem{Category: "Storage", Name: "Used Disk", Value: fmt.Sprintf("%d GB (%.1f%%)", du.Used/gb, du.UsedPercent), Details: fmt.Sprintf("%d MB used", du.Used/mb)},
			model.SystemInfoItem{Category: "Storage", Name: "Free Disk", Value: fmt.Sprintf("%d GB", du.Free/gb), Details: fmt.Sprintf("%d MB free", du.Free/mb)},
		)
	}

	if procs, err := topProcessItems(ctx, topProcesses); err != nil {
		log.Warnf("获取进程信息失败: %v", err)
	} else {
		items = append(items, procs...)
	}

	return toRecords(items), nil
}

func (c *SystemInfoCollector) cpuItems(ctx context.Context) ([]model.SystemInfoItem, error) {
	logical, err := cpu.CountsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	physical, err := cpu.CountsWithContext(ctx, false)
	if err != nil {
		physical = logical
	}
	percent, err := cpu.PercentWithContext(ctx, c.cpuInterval, false)
	if err != nil || len(percent) == 0 {
		return nil, fmt.Errorf("获取CPU使用率失败: %v", err)
	}
	return []model.SystemInfoItem{
		{Category: "CPU", Name: "CPU Cores", Value: fmt.Sprint(logical), Details: fmt.Sprintf("Physical: %d, Logical: %d", physical, logical)},
		{Category: "CPU", Name: "CPU Usage", Value: fmt.Sprintf("%.1f%%", percent[0]), Details: "Current utilization"},
	}, nil
}

type procUsage struct {
	pid    int32
	name   string
	cpu    float64
	memory float32
}

// topProcessItems CPU 占用最高的进程
func topProcessItems(ctx context.Context, limit int) ([]model.SystemInfoItem, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}

	usages := make([]procUsage, 0, len(procs))
	for _, p := range procs {
		cpuPercent, err := p.CPUPercentWithContext(ctx)
		if err != nil || cpuPercent <= 0 {
			continue
		}
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		memPercent, _ := p.MemoryPercentWithContext(ctx)
		usages = append(usages, procUsage{pid: p.Pid, name: name, cpu: cpuPercent, memory: memPercent})
	}

	sort.Slice(usages, func(i, j int) bool { return usages[i].cpu > usages[j].cpu })
	if len(usages) > limit {
		usages = usages[:limit]
	}

	items := make([]model.SystemInfoItem, 0, len(usages))
	for _, u := range usages {
		items = append(items, model.SystemInfoItem{
			Category: "Process",
			Name:     u.name,
			Value:    fmt.Sprintf("PID: %d", u.pid),
			Details:  fmt.Sprintf("CPU: %.1f%%, Memory: %.1f%%", u.cpu, u.memory),
		})
	}
	return items, nil
}

func rootDisk() string {
	if runtime.GOOS == "windows" {
		return `C:\`
	}
	return "/"
}

// Sample 示例系统信息
func (c *SystemInfoCollector) Sample(_ time.Time) []model.Record {
	return toRecords([]model.SystemInfoItem{
		{Category: "OS", Name: "Operating System", Value: "Windows 11 Pro", Details: "Build 22621.2861"},
		{Category: "CPU", Name: "Processor", Value: "Intel Core i7-12700K", Details: "12 cores, 20 threads, 3.6 GHz base"},
		{Category: "Memory", Name: "Total RAM", Value: "32 GB", Details: "DDR4-3200, 85% used"},
		{Category: "Storage", Name: "Primary Drive", Value: "1 TB SSD", Details: "NVMe, 65% used"},
		{Category: "Software", Name: "Google Chrome", Value: "v120.0.6099.109", Details: "Browser - Development category"},
		{Category: "Software", Name: "Visual Studio Code", Value: "v1.85.0", Details: "IDE - Development category"},
		{Category: "Software", Name: "Python", Value: "v3.11.7", Details: "Programming Language - Development category"},
		{Category: "Software", Name: "Microsoft Office", Value: "v2021", Details: "Office Suite - Productivity category"},
		{Category: "Process", Name: "chrome.exe", Value: "PID: 1234", Details: "CPU: 15.5%, Memory: 8.2%"},
		{Category: "Process", Name: "Code.exe", Value: "PID: 5678", Details: "CPU: 5.3%, Memory: 12.1%"},
		{Category: "Network", Name: "Active Connections", Value: "45 connections", Details: "WiFi: Connected, Speed: 100 Mbps"},
		{Category: "Security", Name: "Windows Defender", Value: "Active", Details: "Real-time protection enabled"},
	})
}
