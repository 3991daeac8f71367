// Package ingest defines the raw mission records accepted by the /tess,
// /kepler and /k2 endpoints and acknowledges them.
//
// Required fields are pointers so that presence, not a non-zero value, is
// what the binding layer checks: an id of 0 is a valid id. Optional fields
// that were not sent are echoed back as null.
package ingest

import "exoclass/internal/common"

// TESSRecord is one TESS Objects of Interest row.
type TESSRecord struct {
	ID         *int64   `json:"id" binding:"required"`
	PlanetName *string  `json:"planet_name" binding:"required"`
	PeriodDays *float64 `json:"period_days" binding:"required"`
	RadiusRe   *float64 `json:"radius_re" binding:"required"`
	StTeffK    *float64 `json:"st_teff_k"`
	StMassMs   *float64 `json:"st_mass_ms"`
}

// KeplerRecord is one Kepler Objects of Interest row.
type KeplerRecord struct {
	KepID       *int64   `json:"kepid" binding:"required"`
	KOIName     *string  `json:"kepoi_name" binding:"required"`
	Disposition *string  `json:"disposition" binding:"required"`
	KOIPeriod   *float64 `json:"koi_period" binding:"required"`
	KOIScore    *float64 `json:"koi_score"`
}

// K2Record is one K2 planets and candidates row.
type K2Record struct {
	ID         *int64   `json:"id" binding:"required"`
	HostName   *string  `json:"host_name" binding:"required"`
	PeriodDays *float64 `json:"period_days" binding:"required"`
	RadiusRe   *float64 `json:"radius_re" binding:"required"`
	TeqK       *float64 `json:"teq_k"`
}

// Dataset describes one ingestion endpoint.
type Dataset struct {
	Name string
	Path string
}

// Datasets lists the ingestion endpoints.
var Datasets = []Dataset{
	{Name: common.DatasetTESS, Path: "/tess"},
	{Name: common.DatasetKepler, Path: "/kepler"},
	{Name: common.DatasetK2, Path: "/k2"},
}

// Names returns the dataset names.
func Names() []string {
	names := make([]string, len(Datasets))
	for i, d := range Datasets {
		names[i] = d.Name
	}
	return names
}
