package types

// Update is what an engine step reports to its observer.
type Update struct {
	Bar      Bar       `json:"bar"`
	Signals  []Signal  `json:"signals"`
	Decision Direction `json:"decision"`
	// Opened is set when the step opened a position
	Opened *Position `json:"opened,omitempty"`
	// Closed is set when the step closed a position
	Closed *Trade `json:"closed,omitempty"`
	Result Result `json:"result"`
	Err    error  `json:"-"`
	Error  string `json:"error,omitempty"`
}

// IsError reports whether the update carries a failed step.
func (u Update) IsError() bool {
	return u.Err != nil
}
