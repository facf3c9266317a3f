/*
 * Copyright 2025 The Sightglass Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package netwatch

import "net"

// Connectivity reports the host's local view of network availability,
// the equivalent of the browser's navigator.onLine. When it reports
// offline the monitor short-circuits to disconnected without issuing any
// network traffic.
type Connectivity interface {
	Online() bool
}

// interfaceConnectivity reports online when any non-loopback interface is
// up with at least one address.
type interfaceConnectivity struct{}

func (interfaceConnectivity) Online() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		// Can't tell; assume online and let the probe decide.
		return true
	}

	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}

		if iface.Flags&net.FlagUp == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil || len(addrs) == 0 {
			continue
		}

		return true
	}

	return false
}
