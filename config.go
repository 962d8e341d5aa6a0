package zonetrack

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
)

// zonesFile is the on disk zone configuration document format
type zonesFile struct {
	Polygons [][][2]int `json:"polygons"`
}

// LoadZonesConfig reads polygon zone definitions from the given JSON
// configuration file.  The document holds a "polygons" field mapping to
// a list of point lists:
//
//	{"polygons": [[[100, 100], [540, 100], [540, 380], [100, 380]]]}
//
// Zone order in the file is preserved, it defines engine result ordering
// and render z-order.
func LoadZonesConfig(file string) ([][]image.Point, error) {

	// open the file
	data, err := os.ReadFile(file)

	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	var cfg zonesFile

	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing zone configuration: %w", err)
	}

	if len(cfg.Polygons) == 0 {
		return nil, fmt.Errorf("zone configuration contains no polygons")
	}

	polygons := make([][]image.Point, len(cfg.Polygons))

	for i, poly := range cfg.Polygons {

		points := make([]image.Point, len(poly))

		for j, pt := range poly {
			points[j] = image.Pt(pt[0], pt[1])
		}

		polygons[i] = points
	}

	return polygons, nil
}
