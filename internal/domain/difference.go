package domain

// CircularDifference folds noon + tz - 24 onto [-12, +12] hours.
// One correction in each direction is enough for inputs in [0, 24).
func CircularDifference(noon, tz float64) float64 {
	d := noon + tz - 24
	if d < -12 {
		d += 24
	}
	if d > 12 {
		d -= 24
	}
	return d
}

// Difference combines a noon-offset raster and a time-zone raster into a
// new raster of circular differences. Both inputs must be shaped like g.
func Difference(g Grid, noon, tz Raster) (Raster, error) {
	if err := noon.CheckShape(g); err != nil {
		return Raster{}, err
	}
	if err := tz.CheckShape(g); err != nil {
		return Raster{}, err
	}
	out := NewRaster(g)
	for i := range out.Data {
		out.Data[i] = CircularDifference(noon.Data[i], tz.Data[i])
	}
	return out, nil
}
