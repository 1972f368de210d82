package history

import (
	"context"
	"errors"

	"github.com/kdimtricp/leafscan/internal/detection"
	"github.com/kdimtricp/leafscan/internal/models"
)

// Multi appends every record to each sink in turn. A failing sink does not
// stop the others; all failures are joined into the returned error.
type Multi []detection.HistoryLog

func NewMulti(sinks ...detection.HistoryLog) Multi {
	out := make(Multi, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (m Multi) Append(ctx context.Context, rec *models.DetectionRecord) error {
	var errs []error
	for _, sink := range m {
		if err := sink.Append(ctx, rec); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
