package schemas

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/brewer/internal/runerr"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// DriverStatus is the envelope the page side returns for every command.
// Exactly one of Result and ExecutionError is meaningful.
type DriverStatus struct {
	IsCommandResult bool
	Result          interface{}
	ExecutionError  *runerr.Error
}

// NewResultStatus reports a successful command. A nil result is a valid
// (null) result.
func NewResultStatus(result interface{}) *DriverStatus {
	return &DriverStatus{IsCommandResult: true, Result: result}
}

func NewErrorStatus(err *runerr.Error) *DriverStatus {
	return &DriverStatus{IsCommandResult: true, ExecutionError: err}
}

// Failed reports whether the status carries an execution error.
func (s *DriverStatus) Failed() bool {
	return s.ExecutionError != nil
}

func (s *DriverStatus) MarshalJSON() ([]byte, error) {
	if s.ExecutionError != nil {
		return json.Marshal(struct {
			IsCommandResult bool          `json:"isCommandResult"`
			ExecutionError  *runerr.Error `json:"executionError"`
		}{s.IsCommandResult, s.ExecutionError})
	}
	return json.Marshal(struct {
		IsCommandResult bool        `json:"isCommandResult"`
		Result          interface{} `json:"result"`
	}{s.IsCommandResult, s.Result})
}

func (s *DriverStatus) UnmarshalJSON(data []byte) error {
	var wire struct {
		IsCommandResult bool          `json:"isCommandResult"`
		Result          interface{}   `json:"result"`
		ExecutionError  *runerr.Error `json:"executionError"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	s.IsCommandResult = wire.IsCommandResult
	s.Result = wire.Result
	s.ExecutionError = wire.ExecutionError
	return nil
}
