// VyPR
// Copyright (C) 2018-2026+ Joshua Dawes and the VyPR contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package monitor

import (
	"encoding/binary"
	"net"
	"time"

	"golang.org/x/time/rate"
)

// ntpEpochOffset is the number of seconds between the NTP epoch (1900) and
// the Unix epoch (1970).
const ntpEpochOffset = 2208988800

// NTPClient self-corrects a process-wide clock offset against an NTP host,
// used when the "ntp_server" configuration key is set. Retries after a
// failed query are bounded by a rate.Sometimes limiter, so a misbehaving
// NTP host doesn't get hammered across repeated verification context
// restarts within a process.
type NTPClient struct {
	Server string
	Logf   func(format string, v ...interface{})

	limiter    rate.Sometimes
	lastOffset time.Duration
}

// NewNTPClient returns a client that will query server no more than once
// every 30 seconds, regardless of how often Offset is called.
func NewNTPClient(server string, logf func(format string, v ...interface{})) *NTPClient {
	return &NTPClient{
		Server:  server,
		Logf:    logf,
		limiter: rate.Sometimes{Interval: 30 * time.Second},
	}
}

// Offset returns the duration to add to time.Now() to get the server's
// wall-clock time. It re-queries the configured server at most once every
// 30 seconds (via the rate limiter); between queries it returns the last
// successfully measured offset rather than re-zeroing it, so callers always
// get the best correction available. A failed query is logged and leaves
// the last known offset (zero, until the first successful query) in place.
func (n *NTPClient) Offset() time.Duration {
	n.limiter.Do(func() {
		o, err := queryNTP(n.Server)
		if err != nil {
			if n.Logf != nil {
				n.Logf("monitor: ntp query to %s failed: %v", n.Server, err)
			}
			return
		}
		n.lastOffset = o
	})
	return n.lastOffset
}

func queryNTP(server string) (time.Duration, error) {
	conn, err := net.DialTimeout("udp", server+":123", 5*time.Second)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(5 * time.Second)); err != nil {
		return 0, err
	}

	req := make([]byte, 48)
	req[0] = 0x1B // LI=0, VN=3, Mode=3 (client)
	if _, err := conn.Write(req); err != nil {
		return 0, err
	}

	resp := make([]byte, 48)
	if _, err := conn.Read(resp); err != nil {
		return 0, err
	}

	secs := binary.BigEndian.Uint32(resp[40:44])
	serverTime := time.Unix(int64(secs)-ntpEpochOffset, 0)
	return time.Until(serverTime), nil
}
