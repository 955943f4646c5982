package wrapper

// PollingInfo carries the server's recommended polling interval in
// milliseconds.
type PollingInfo struct {
	RecommendedInterval int64 `json:"recommendedInterval"`
}

type JSONResult struct {
	Code        int          `json:"-"`
	Success     bool         `json:"success"`
	Message     string       `json:"message,omitempty"`
	Error       string       `json:"error,omitempty"`
	Data        interface{}  `json:"data"`
	PollingInfo *PollingInfo `json:"pollingInfo,omitempty"`
}

func ResponseSuccess(httpCode int, data interface{}) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: true,
		Message: "Success",
		Data:    data,
	}
}

// ResponsePolling is a success response with an interval recommendation.
func ResponsePolling(httpCode int, data interface{}, recommendedMs int64) JSONResult {
	res := ResponseSuccess(httpCode, data)
	res.PollingInfo = &PollingInfo{RecommendedInterval: recommendedMs}
	return res
}

func ResponseFailed(httpCode int, message string, data interface{}) JSONResult {
	return JSONResult{
		Code:    httpCode,
		Success: false,
		Message: message,
		Error:   message,
		Data:    data,
	}
}
