package metrics

import (
	"time"

	obserrors "github.com/target/guardlink/internal/observability/errors"
)

// Outcome describes one unit of work for metric emission.
type Outcome struct {
	Name     string
	Result   string
	Duration time.Duration
	Err      error
	Tags     map[string]string
}

// Emit records a counter named "<name>" tagged with result and error_class
// ("none" without an error), plus a "<name>_duration" timing when a
// duration is present.
func Emit(sink Sink, o Outcome) {
	if sink == nil || o.Name == "" {
		return
	}

	tags := CloneTags(o.Tags)
	if tags == nil {
		tags = make(map[string]string, 2)
	}
	result := o.Result
	if result == "" {
		result = ResultSuccess
		if o.Err != nil {
			result = ResultError
		}
	}
	tags["result"] = result
	tags["error_class"] = "none"
	if o.Err != nil {
		if class := obserrors.Classify(o.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count(o.Name, 1, tags)
	if o.Duration > 0 {
		sink.Timing(o.Name+"_duration", o.Duration, CloneTags(tags))
	}
}
