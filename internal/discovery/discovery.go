// Package discovery finds SNMP agents by probing hosts for sysDescr.0.
package discovery

import (
	"context"
	"fmt"
	"net"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gosnmp/gosnmp"
)

// SysDescrOID is the object every agent is asked for
const SysDescrOID = "1.3.6.1.2.1.1.1.0"

// DefaultPorts are the agent ports probed when none are given
var DefaultPorts = []int{161, 1161}

// Agent is one responding endpoint
type Agent struct {
	Host         string
	Port         int
	Description  string
	ResponseTime time.Duration
}

// Address returns host:port
func (a Agent) Address() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(a.Port))
}

// ProbeFunc asks one endpoint for its description
type ProbeFunc func(ctx context.Context, host string, port int) (string, error)

// Scanner probes endpoints concurrently
type Scanner struct {
	Community string
	Timeout   time.Duration
	// Workers bounds concurrent probes
	Workers int

	probe ProbeFunc
}

// NewScanner creates a v2c scanner
func NewScanner(community string) *Scanner {
	s := &Scanner{Community: community, Timeout: 2 * time.Second, Workers: 32}
	s.probe = s.snmpProbe
	return s
}

// WithProbe swaps the probe, mainly for tests
func (s *Scanner) WithProbe(p ProbeFunc) *Scanner {
	s.probe = p
	return s
}

// Scan probes every host on every port and returns the responders ordered by
// address
func (s *Scanner) Scan(ctx context.Context, hosts []string, ports []int) []Agent {
	if len(ports) == 0 {
		ports = DefaultPorts
	}
	workers := max(s.Workers, 1)

	type target struct {
		host string
		port int
	}
	targets := make(chan target)
	results := make(chan Agent)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range targets {
				start := time.Now()
				desc, err := s.probe(ctx, t.host, t.port)
				if err != nil {
					continue
				}
				select {
				case results <- Agent{Host: t.host, Port: t.port, Description: desc, ResponseTime: time.Since(start)}:
				case <-ctx.Done():
				}
			}
		}()
	}

	go func() {
		defer close(targets)
		for _, h := range hosts {
			for _, p := range ports {
				select {
				case targets <- target{h, p}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	agents := make([]Agent, 0)
	seen := make(map[string]bool)
	for a := range results {
		if !seen[a.Address()] {
			seen[a.Address()] = true
			agents = append(agents, a)
		}
	}
	sort.Slice(agents, func(i, j int) bool {
		return agents[i].Address() < agents[j].Address()
	})
	return agents
}

func (s *Scanner) snmpProbe(ctx context.Context, host string, port int) (string, error) {
	g := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    host,
		Port:      uint16(port),
		Transport: "udp",
		Community: s.Community,
		Version:   gosnmp.Version2c,
		Timeout:   s.Timeout,
		Retries:   0,
	}
	if err := g.Connect(); err != nil {
		return "", err
	}
	defer func() { _ = g.Conn.Close() }()

	pkt, err := g.Get([]string{SysDescrOID})
	if err != nil {
		return "", err
	}
	if len(pkt.Variables) == 0 {
		return "", fmt.Errorf("empty response from %s", host)
	}
	v := pkt.Variables[0]
	switch v.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView:
		return "", nil
	case gosnmp.OctetString:
		if b, ok := v.Value.([]byte); ok {
			return strings.TrimSpace(string(b)), nil
		}
	}
	return fmt.Sprint(v.Value), nil
}

// ExpandHosts turns CIDR blocks into their host addresses; plain names pass
// through. Networks wider than /16 are refused.
func ExpandHosts(specs []string) ([]string, error) {
	var hosts []string
	for _, spec := range specs {
		if !strings.Contains(spec, "/") {
			hosts = append(hosts, spec)
			continue
		}
		ip, ipnet, err := net.ParseCIDR(spec)
		if err != nil {
			return nil, fmt.Errorf("invalid network %q: %w", spec, err)
		}
		ones, bits := ipnet.Mask.Size()
		if bits-ones > 16 {
			return nil, fmt.Errorf("network %q is too large to scan", spec)
		}
		var block []string
		for cur := ip.Mask(ipnet.Mask); ipnet.Contains(cur); cur = next(cur) {
			block = append(block, cur.String())
		}
		// network and broadcast addresses never answer
		if ip.To4() != nil && bits-ones >= 2 {
			block = block[1 : len(block)-1]
		}
		hosts = append(hosts, block...)
	}
	return hosts, nil
}

func next(ip net.IP) net.IP {
	out := make(net.IP, len(ip))
	copy(out, ip)
	for i := len(out) - 1; i >= 0; i-- {
		out[i]++
		if out[i] != 0 {
			break
		}
	}
	return out
}
