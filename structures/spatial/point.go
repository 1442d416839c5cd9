// Package spatial holds the Point2D/Point3D value types the struct
// handler registry maps to Bolt's spatial struct tags. Neither the
// teacher nor the distilled spec implements these - supplemented from
// the wider Bolt structure family since the registry needs a complete
// tag table to be a faithful "struct handler registry" (spec §4.3).
package spatial

// Point2D is a planar point in a given spatial reference system.
type Point2D struct {
	SRID int64
	X    float64
	Y    float64
}

// Point3D is a point in a given spatial reference system with depth.
type Point3D struct {
	SRID int64
	X    float64
	Y    float64
	Z    float64
}
