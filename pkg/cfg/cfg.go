package cfg

import (
	"encoding/json"
	"fmt"
	"io/ioutil"
	"time"
)

// ZScale converts map depth units (meters) to mesh Z units. The metadata
// layer of a document may override it.
var ZScale = 0.5

// MissRateThreshold is the fraction of failed depth queries in a group at or
// above which the group is flagged as abnormal. The value has no derivation;
// it only separates a stuck oracle from the usual misses at map borders.
var MissRateThreshold = 0.2

// CirclePoints is the number of vertices used for circles and ellipses.
var CirclePoints = 24

// WellFacets is the number of sides of well cylinders.
var WellFacets = 8

// WellDefaultHeight is the height (before ZScale) given to wells before
// their real depth is known.
var WellDefaultHeight = 20.0

// TextZShift is the default height above ground of text labels, before ZScale.
var TextZShift = 5.0

// TextZ is the Z of text objects before depth alignment.
var TextZ = 4.0

// ArrowBaseHeightShift is the default height of the text end of arrows.
var ArrowBaseHeightShift = 4.9

// Text font size bounds, in points. Larger text is scaled instead.
var MinFontSize = 10.0
var MaxFontSize = 20.0

// OracleTimeout bounds a single depth query. OracleRetries is the number of
// additional attempts before the oracle is considered stalled.
var OracleTimeout = 5 * time.Second
var OracleRetries = 2

// OracleWindow is the half size of the view window the depth oracle
// re-centers on when a query falls outside of its current extent.
var OracleWindow = 8.0

// Zebra stripes for cat flaps
var CatFlapStripeLength = 1.0
var CatFlapHalfWidth = 0.3
var CatFlapHeight = 0.2

// MaxMitreSine clamps the bend angle of mitred stripe joints.
var MaxMitreSine = 0.95

// SimplifyTolerance is the Douglas-Peucker threshold for 2D map output.
var SimplifyTolerance = 0.05

type overrides struct {
	ZScale               *float64 `json:"z_scale"`
	MissRateThreshold    *float64 `json:"miss_rate_threshold"`
	CirclePoints         *int     `json:"circle_points"`
	WellFacets           *int     `json:"well_facets"`
	TextZShift           *float64 `json:"text_z_shift"`
	ArrowBaseHeightShift *float64 `json:"arrow_base_height_shift"`
	OracleTimeoutMS      *int     `json:"oracle_timeout_ms"`
	OracleRetries        *int     `json:"oracle_retries"`
	SimplifyTolerance    *float64 `json:"simplify_tolerance"`
}

// Load overlays the tunables with the values found in a JSON file. Missing
// keys keep their current value.
func Load(path string) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return err
	}
	var o overrides
	if err := json.Unmarshal(data, &o); err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	setFloat(&ZScale, o.ZScale)
	setFloat(&MissRateThreshold, o.MissRateThreshold)
	setInt(&CirclePoints, o.CirclePoints)
	setInt(&WellFacets, o.WellFacets)
	setFloat(&TextZShift, o.TextZShift)
	setFloat(&ArrowBaseHeightShift, o.ArrowBaseHeightShift)
	setInt(&OracleRetries, o.OracleRetries)
	setFloat(&SimplifyTolerance, o.SimplifyTolerance)
	if o.OracleTimeoutMS != nil {
		OracleTimeout = time.Duration(*o.OracleTimeoutMS) * time.Millisecond
	}
	return nil
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
