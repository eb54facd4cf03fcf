package server

import (
	"context"
	"encoding/json"
	"net"

	"github.com/SampleEnvironment/frappy/logger"
)

const (
	// DiscoveryPort is the UDP port for SEC node discovery.
	DiscoveryPort = 10767

	// maxDiscoveryLen caps the announcement datagram so it fits a single
	// unfragmented UDP packet on any sane path MTU.
	maxDiscoveryLen = 508
)

// discoveryRequest is the client side probe we answer to.
type discoveryRequest struct {
	SECoP string `json:"SECoP"`
}

// announcement is the datagram describing this node to discovering clients.
type announcement struct {
	SECoP       string `json:"SECoP"`
	Port        int    `json:"port"`
	EquipmentID string `json:"equipment_id"`
	Firmware    string `json:"firmware"`
	Description string `json:"description"`
}

// Discovery answers SECoP UDP discovery probes and optionally broadcasts an
// announcement at startup.
type Discovery struct {
	log         logger.Logger
	equipmentID string
	description string
	port        int
	enabled     bool

	conn *net.UDPConn
}

// NewDiscovery binds the discovery UDP socket. port is the TCP port the
// announcement points clients at. When the fixed-size datagram cannot hold
// the node description, the description is truncated; when even an empty
// description does not fit, discovery is disabled with a warning.
func NewDiscovery(equipmentID, description string, port int, log logger.Logger) (*Discovery, error) {
	if log == nil {
		log = logger.GetLogger()
	}
	d := &Discovery{
		log:         log,
		equipmentID: equipmentID,
		description: description,
		port:        port,
		enabled:     true,
	}

	// worst case port number for the length check
	overhead := len(d.message(1<<16 - 1))
	if avail := maxDiscoveryLen - overhead; avail < 0 {
		if avail+len(description) < 0 {
			log.Warn("equipment id and firmware exceed the discovery size limit, discovery disabled")
			d.enabled = false
		} else {
			log.Debug("truncating description for udp discovery")
			d.description = truncateUTF8(description, len(description)+avail)
		}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: DiscoveryPort})
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return d, nil
}

func (d *Discovery) message(port int) []byte {
	data, err := json.Marshal(announcement{
		SECoP:       "node",
		Port:        port,
		EquipmentID: d.equipmentID,
		Firmware:    Firmware + " " + Version,
		Description: d.description,
	})
	if err != nil {
		// announcement marshals plain strings and ints
		panic(err)
	}
	return data
}

// Run broadcasts the startup announcement and then answers discovery probes
// until the context is cancelled.
func (d *Discovery) Run(ctx context.Context) {
	defer d.conn.Close()

	if d.enabled {
		bcast := &net.UDPAddr{IP: net.IPv4bcast, Port: DiscoveryPort}
		if _, err := d.conn.WriteToUDP(d.message(d.port), bcast); err != nil {
			d.log.Debug("startup broadcast failed", "error", err)
		}
	}

	go func() {
		<-ctx.Done()
		d.conn.Close()
	}()

	buf := make([]byte, 1024)
	for {
		n, addr, err := d.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		if !d.enabled {
			continue
		}
		var req discoveryRequest
		if err := json.Unmarshal(buf[:n], &req); err != nil || req.SECoP != "discover" {
			continue
		}
		d.log.Debug("answering udp discovery", "remote", addr.String())
		if _, err := d.conn.WriteToUDP(d.message(d.port), addr); err != nil {
			d.log.Debug("discovery answer failed", "error", err)
		}
	}
}

// truncateUTF8 cuts s to at most n bytes without splitting a multi-byte
// rune.
func truncateUTF8(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && s[n]&0xc0 == 0x80 {
		n--
	}
	return s[:n]
}
