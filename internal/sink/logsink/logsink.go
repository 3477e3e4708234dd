// Package logsink provides a Sink that writes batches to the logger, used for dry runs.
package logsink

import (
	"context"
	"encoding/json"

	"github.com/leandrodaf/midilog/sdk/contracts"
)

// Sink logs every row it is asked to write.
type Sink struct {
	log   contracts.Logger
	table string
}

// New returns a Sink that logs rows as if they were inserted into table.
func New(log contracts.Logger, table string) *Sink {
	return &Sink{log: log, table: table}
}

// Flush logs each event as the JSON row it would be stored as. Encoding errors are returned.
func (s *Sink) Flush(_ context.Context, events []contracts.Event) error {
	for i, ev := range events {
		row, err := json.Marshal(ev)
		if err != nil {
			return err
		}
		s.log.Info("Dry run row",
			s.log.Field().String("table", s.table),
			s.log.Field().Int("row", i),
			s.log.Field().String("v", string(row)))
	}
	return nil
}
