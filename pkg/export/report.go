package export

import (
	"encoding/json"
	"io"

	"github.com/kilianp07/evcorridor/core/stats"
)

// WriteJSON writes the report to w in JSON format.
func WriteJSON(w io.Writer, rep stats.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rep)
}
