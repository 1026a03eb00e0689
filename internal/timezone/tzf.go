package timezone

import (
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata" // IANA rules for hosts without a zoneinfo database

	"github.com/couchcryptid/noonmap/internal/domain"
	"github.com/paulmach/orb"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/ringsaturn/tzf"
)

// TZFClassifier classifies points by IANA zone and uses the offset that
// zone has at a fixed reference instant, daylight saving included.
type TZFClassifier struct {
	finder  tzf.F
	ref     time.Time
	offsets *xsync.MapOf[string, float64]
	failed  *xsync.MapOf[string, struct{}]
	logger  *slog.Logger
}

// NewTZFClassifier loads the bundled tzf boundary data.
func NewTZFClassifier(ref time.Time, logger *slog.Logger) (*TZFClassifier, error) {
	finder, err := tzf.NewDefaultFinder()
	if err != nil {
		return nil, fmt.Errorf("load tzf data: %w", err)
	}
	return &TZFClassifier{
		finder:  finder,
		ref:     ref,
		offsets: xsync.NewMapOf[string, float64](),
		failed:  xsync.NewMapOf[string, struct{}](),
		logger:  logger,
	}, nil
}

func (c *TZFClassifier) Classify(p orb.Point) (float64, bool) {
	name := c.finder.GetTimezoneName(p.Lon(), p.Lat())
	if name == "" {
		return 0, false
	}
	return c.offset(name)
}

// offset resolves a zone name at the reference instant. A name the embedded
// tzdata cannot load is logged once and left unclassified.
func (c *TZFClassifier) offset(name string) (float64, bool) {
	if off, ok := c.offsets.Load(name); ok {
		return off, true
	}
	if _, ok := c.failed.Load(name); ok {
		return 0, false
	}
	off, err := OffsetAt(name, c.ref)
	if err != nil {
		if _, loaded := c.failed.LoadOrStore(name, struct{}{}); !loaded {
			c.logger.Warn("load tz zone offset failed", "zone", name, "error", err)
		}
		return 0, false
	}
	c.offsets.Store(name, off)
	return off, true
}

// OffsetAt returns the normalized UTC offset in hours of an IANA zone at t.
func OffsetAt(name string, t time.Time) (float64, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return 0, fmt.Errorf("load location %s: %w", name, err)
	}
	_, secs := t.In(loc).Zone()
	return domain.NormalizeOffset(float64(secs) / 3600), nil
}
