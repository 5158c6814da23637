package handlers

type APIResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Field   string `json:"field"`
}

type APIStateResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type APIHealthResponse struct {
	Status    string `json:"status"`
	MainBlock uint64 `json:"mainBlock"`
	SideBlock uint64 `json:"sideBlock"`
	Message   string `json:"message,omitempty"`
}

type APISubmitRelayResponse struct {
	Status       string `json:"status"`
	ID           string `json:"id"`
	SourceTxHash string `json:"sourceTxHash"`
}
