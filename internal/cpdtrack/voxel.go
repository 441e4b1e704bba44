package cpdtrack

import "math"

// voxelDownsample reduces cloud to one representative per occupied
// axis-aligned cubic voxel of side leaf, per §4.3. The representative is
// the centroid of the input points that fell in that voxel (not the
// nearest original point — see DESIGN.md for why this differs from the
// teacher's l4perception.VoxelGrid).
//
// Deterministic with respect to input ordering up to floating-point
// summation order.
func voxelDownsample(cloud PointCloud, leaf float64) PointCloud {
	if len(cloud.Points) == 0 || leaf <= 0 {
		return cloud
	}

	type voxelKey struct{ x, y, z int64 }
	type accum struct {
		sum   Point3
		count int
	}

	invLeaf := 1.0 / leaf
	voxels := make(map[voxelKey]*accum, len(cloud.Points)/4)
	order := make([]voxelKey, 0, len(cloud.Points)/4)

	for _, p := range cloud.Points {
		key := voxelKey{
			int64(math.Floor(p.X * invLeaf)),
			int64(math.Floor(p.Y * invLeaf)),
			int64(math.Floor(p.Z * invLeaf)),
		}
		acc, ok := voxels[key]
		if !ok {
			acc = &accum{}
			voxels[key] = acc
			order = append(order, key)
		}
		acc.sum.X += p.X
		acc.sum.Y += p.Y
		acc.sum.Z += p.Z
		acc.count++
	}

	out := PointCloud{Points: make([]Point3, 0, len(order))}
	for _, key := range order {
		acc := voxels[key]
		n := float64(acc.count)
		out.Points = append(out.Points, Point3{acc.sum.X / n, acc.sum.Y / n, acc.sum.Z / n})
	}
	return out
}
