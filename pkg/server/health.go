// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"net/http"
)

type relayHealth struct {
	Running     bool `json:"running"`
	Connections int  `json:"connections"`
}

type healthResponse struct {
	Status string      `json:"status"`
	Relay  relayHealth `json:"relay"`
}

// handleHealth always answers healthy; the relay is optional.
func (h *HTTPServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := healthResponse{Status: "healthy"}
	if h.relay != nil {
		resp.Relay = relayHealth{Running: h.relay.IsRunning(), Connections: h.relay.ConnectionCount()}
	}
	h.writeJSON(w, http.StatusOK, resp)
}
