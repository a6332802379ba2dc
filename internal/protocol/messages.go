package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	AgentName       string `json:"agent_name"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	AgentID         string     `json:"agent_id"`
	Grid            GridParams `json:"grid"`
}

type GridParams struct {
	WidthCells int     `json:"width_cells"`
	DepthCells int     `json:"depth_cells"`
	CellSize   float64 `json:"cell_size"`
	OriginX    float64 `json:"origin_x"`
	OriginZ    float64 `json:"origin_z"`
}

// PATH_REQUEST (client -> server). Start/Goal are world-space [x, y, z];
// the Y component is ignored on input.
type PathRequestMsg struct {
	Type            string     `json:"type"`
	ProtocolVersion string     `json:"protocol_version"`
	RequestID       string     `json:"request_id"`
	Start           [3]float64 `json:"start"`
	Goal            [3]float64 `json:"goal"`

	AllowDiagonal        *bool   `json:"allow_diagonal,omitempty"`
	HeuristicWeight      float64 `json:"heuristic_weight,omitempty"`
	FindNearestIfBlocked *bool   `json:"find_nearest_if_blocked,omitempty"`
	NearestSearchRadius  int     `json:"nearest_search_radius,omitempty"`
	DeadlineMs           int     `json:"deadline_ms,omitempty"`
}

// CANCEL (client -> server) cancels a previously submitted request.
type CancelMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id"`
}

// PATH_RESULT (server -> client)
type PathResultMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id"`
	JobID           uint64 `json:"job_id"`
	AgentID         string `json:"agent_id"`
	Status          string `json:"status"`

	Waypoints     [][3]float64 `json:"waypoints,omitempty"`
	TotalCost     float64      `json:"total_cost"`
	ExpandedNodes int          `json:"expanded_nodes"`
	Error         string       `json:"error,omitempty"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	RequestID       string `json:"request_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message"`
}
