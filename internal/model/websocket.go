package model

// WebSocket message types
const (
	WSMessageTypeStatus = "status"
	WSMessageTypeError  = "error"
	WSMessageTypePing   = "ping"
	WSMessageTypePong   = "pong"
)

// WSMessage is the minimal envelope for client-sent messages.
type WSMessage struct {
	Type string `json:"type"`
}

// WSStatusMessage is pushed to clients watching a video's processing state.
type WSStatusMessage struct {
	Type    string      `json:"type"`
	VideoID string      `json:"videoId"`
	Status  VideoStatus `json:"status"`
}

// WSErrorMessage is pushed when processing fails.
type WSErrorMessage struct {
	Type    string `json:"type"`
	VideoID string `json:"videoId"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
