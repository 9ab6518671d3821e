package collector

import (
	"context"
	"fmt"
	gonet "net"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/net"
	log "github.com/sirupsen/logrus"

	"digital_insight_go/model"
)

const (
	categoryInterface = "network_interface"
	categoryStats     = "network_stats"
	categoryUsage     = "network_usage"
)

// NetworkCollector 网络信息采集
type NetworkCollector struct{}

// NewNetworkCollector 创建网络信息采集器
func NewNetworkCollector() *NetworkCollector {
	return &NetworkCollector{}
}

func (c *NetworkCollector) Kind() model.Kind { return model.KindNetworkInfo }

func (c *NetworkCollector) Header() []string { return model.NetworkInfoItem{}.CSVHeader() }

// Collect 网卡地址、连接数、收发流量
func (c *NetworkCollector) Collect(ctx context.Context, _ model.CollectOptions) ([]model.Record, error) {
	ifaces, err := net.InterfacesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("获取网络接口失败: %w", err)
	}

	var items []model.NetworkInfoItem
	for _, iface := range ifaces {
		items = append(items, interfaceItems(iface)...)
	}

	if conns, err := net.ConnectionsWithContext(ctx, "all"); err != nil {
		log.Warnf("获取网络连接失败: %v", err)
	} else {
		established := 0
		for _, conn := range conns {
			if conn.Status == "ESTABLISHED" {
				established++
			}
		}
		items = append(items, model.NetworkInfoItem{
			Name:     "Active Connections",
			Value:    fmt.Sprint(established),
			Details:  fmt.Sprintf("Total connections: %d", len(conns)),
			Category: categoryStats,
		})
	}

	if counters, err := net.IOCountersWithContext(ctx, false); err != nil || len(counters) == 0 {
		log.Warnf("获取网络流量失败: %v", err)
	} else {
		io := counters[0]
		items = append(items,
			model.NetworkInfoItem{Name: "Bytes Sent", Value: fmt.Sprintf("%d MB", io.BytesSent/mb), Details: fmt.Sprintf("%d packets", io.PacketsSent), Category: categoryUsage},
			model.NetworkInfoItem{Name: "Bytes Received", Value: fmt.Sprintf("%d MB", io.BytesRecv/mb), Details: fmt.Sprintf("%d packets", io.PacketsRecv), Category: categoryUsage},
		)
	}

	return toRecords(items), nil
}

// interfaceItems 每个 IPv4/IPv6 地址一条
func interfaceItems(iface net.InterfaceStat) []model.NetworkInfoItem {
	up := false
	for _, flag := range iface.Flags {
		if strings.EqualFold(flag, "up") {
			up = true
			break
		}
	}
	mtu := iface.MTU

	var items []model.NetworkInfoItem
	for _, addr := range iface.Addrs {
		ip, ipNet, err := gonet.ParseCIDR(addr.Addr)
		if err != nil {
			continue
		}
		family := "AF_INET6"
		if ip.To4() != nil {
			family = "AF_INET"
		}
		isUp := up
		m := mtu
		items = append(items, model.NetworkInfoItem{
			Interface: iface.Name,
			IPAddress: ip.String(),
			Netmask:   gonet.IP(ipNet.Mask).String(),
			Family:    family,
			IsUp:      &isUp,
			MTU:       &m,
			Category:  categoryInterface,
		})
	}
	return items
}

// Sample 示例网络信息
func (c *NetworkCollector) Sample(_ time.Time) []model.Record {
	iface := func(name, ip, mask string, up bool, speed int) model.NetworkInfoItem {
		mtu := 1500
		return model.NetworkInfoItem{
			Interface: name, IPAddress: ip, Netmask: mask, Family: "AF_INET",
			IsUp: &up, Speed: &speed, MTU: &mtu, Category: categoryInterface,
		}
	}
	return toRecords([]model.NetworkInfoItem{
		iface("WiFi", "192.168.1.100", "255.255.255.0", true, 100),
		iface("Ethernet", "169.254.1.1", "255.255.0.0", false, 1000),
		{Name: "Active Connections", Value: "45", Details: "Total connections: 127", Category: categoryStats},
		{Name: "Bytes Sent", Value: "2048 MB", Details: "1,234,567 packets", Category: categoryUsage},
		{Name: "Bytes Received", Value: "8192 MB", Details: "4,567,890 packets", Category: categoryUsage},
	})
}
