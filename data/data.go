// Package data embeds the sample corridor shipped with the binary: six
// segments of a northbound highway and their traffic volumes.
package data

import (
	"embed"
	"io/fs"
)

//go:embed corridor/*.csv
var corridor embed.FS

// TrafficFile is the traffic table inside Corridor.
const TrafficFile = "traffic.csv"

// Corridor returns the embedded data files.
func Corridor() fs.FS {
	sub, err := fs.Sub(corridor, "corridor")
	if err != nil {
		panic(err)
	}
	return sub
}
