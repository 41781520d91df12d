// Copyright (c) 2026 Visamaster Team
// Visamaster - VISA instrument inventory and address toolkit
// This source code is licensed under the MIT license found in the LICENSE file.

// package probe talks to networked instruments over raw TCP SCPI. It resolves
// a VISA address to a host:port target, runs a *IDN? exchange and parses the
// reply into its identity fields.
//
// Only TCPIP resources can be probed this way; USB, GPIB, ASRL and VXI
// resources need a hardware transport that is out of scope here.
package probe

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/instrhub/visamaster/internal/model"
	"github.com/instrhub/visamaster/internal/visa"
)

// defaultSCPIPort is the conventional raw-SCPI port instruments listen on
// when the address does not name one (the TCPIP INSTR form).
const defaultSCPIPort = 5025

// DefaultTimeout bounds a whole probe exchange when the caller's context
// carries no deadline.
const DefaultTimeout = 5 * time.Second

// UnsupportedError is returned when an address kind has no network transport.
type UnsupportedError struct {
	Addr visa.Address
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("cannot probe %s resource %q over the network", e.Addr.Kind(), e.Addr.String())
}

// Target resolves a VISA address to the host:port a probe should dial.
func Target(a visa.Address) (string, error) {
	t, ok := a.(visa.TCPIPAddress)
	if !ok {
		return "", &UnsupportedError{Addr: a}
	}
	port := defaultSCPIPort
	if t.Socket {
		port = t.Port
	}
	return net.JoinHostPort(t.Host, strconv.Itoa(port)), nil
}

// Query sends a single SCPI command and reads one newline-terminated reply.
func Query(ctx context.Context, a visa.Address, cmd string) (string, error) {
	target, err := Target(a)
	if err != nil {
		return "", err
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", target)
	if err != nil {
		return "", fmt.Errorf("failed to connect to %s: %w", target, err)
	}
	defer func() { _ = conn.Close() }()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	if _, err := fmt.Fprintf(conn, "%s\n", cmd); err != nil {
		return "", fmt.Errorf("failed to send %q to %s: %w", cmd, target, err)
	}
	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read reply from %s: %w", target, err)
	}
	return strings.TrimRight(reply, "\r\n"), nil
}

// IDN runs a *IDN? exchange against the instrument at the given address and
// returns both the parsed identity and the raw reply line.
func IDN(ctx context.Context, a visa.Address) (model.Identity, string, error) {
	reply, err := Query(ctx, a, "*IDN?")
	if err != nil {
		return model.Identity{}, "", err
	}
	id, err := ParseIDN(reply)
	if err != nil {
		return model.Identity{}, reply, err
	}
	return id, reply, nil
}

// ParseIDN splits a *IDN? reply into its four comma-separated fields.
// Replies with extra commas keep the surplus in the firmware field, which is
// where vendors tend to put free-form text.
func ParseIDN(reply string) (model.Identity, error) {
	parts := strings.SplitN(reply, ",", 4)
	if len(parts) < 4 {
		return model.Identity{}, fmt.Errorf("malformed *IDN? reply %q: expected 4 comma-separated fields, got %d", reply, len(parts))
	}
	return model.Identity{
		Manufacturer: strings.TrimSpace(parts[0]),
		Model:        strings.TrimSpace(parts[1]),
		Serial:       strings.TrimSpace(parts[2]),
		Firmware:     strings.TrimSpace(parts[3]),
	}, nil
}
