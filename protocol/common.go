package protocol

var EmptyMessage = &None{}

type None struct{}

type EmptyRequest struct{}

var SuccessMessage = &StringMessage{Message: "success"}

type StringMessage struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code  int    `json:"code"`
	Error string `json:"error"`
}

type Version struct {
	Version  string `json:"version"`
	Protocol string `json:"protocol"`
}

type JoinResponse struct {
	Code int   `json:"code"`
	UID  int64 `json:"uid"`
}

// ClearNotify is pushed to every client when the table is cleared
type ClearNotify struct {
	Source string `json:"source"`
}

// Revision of the world message protocol
const Revision = "1"
