package pointcloud

// Number is the set of numeric element types AddFeatureValues accepts.
type Number interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 |
		~uint | ~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64
}

// AddFeatureFunc adds a feature computed from each element of data.
func AddFeatureFunc[T any](c *Cloud, name string, data []T, value func(T) float32, viewport int) error {
	values := make([]float32, len(data))
	for i, d := range data {
		values[i] = value(d)
	}
	return c.AddFeature(name, values, viewport)
}

// AddFeatureValues adds a feature from any numeric slice, converted to float32.
func AddFeatureValues[T Number](c *Cloud, name string, data []T, viewport int) error {
	values := make([]float32, len(data))
	for i, d := range data {
		values[i] = float32(d)
	}
	return c.AddFeature(name, values, viewport)
}

// Records is a typed collection of point records that knows how to split
// itself into named features and which space to declare. Supporting a new
// record shape means writing one more Decompose.
type Records interface {
	Len() int
	Decompose(c *Cloud, viewport int) error
	Select(indices []int) Records
}

// PointXYZ is a plain 3D point.
type PointXYZ struct {
	X, Y, Z float32
}

// Normal is a surface normal with its curvature estimate.
type Normal struct {
	NormalX, NormalY, NormalZ float32
	Curvature                 float32
}

// PointNormal is a point together with its surface normal.
type PointNormal struct {
	X, Y, Z                   float32
	NormalX, NormalY, NormalZ float32
	Curvature                 float32
}

// PrincipalCurvatures holds the principal curvature direction and magnitudes.
type PrincipalCurvatures struct {
	PrincipalCurvatureX, PrincipalCurvatureY, PrincipalCurvatureZ float32
	PC1, PC2                                                      float32
}

// XYZCloud decomposes into x, y, z with space (x, y, z).
type XYZCloud []PointXYZ

// NormalCloud decomposes into normal_x, normal_y, normal_z, curvature with
// space (normal_x, normal_y, normal_z).
type NormalCloud []Normal

// PointNormalCloud decomposes into x, y, z, normal_x, normal_y, normal_z,
// curvature with spaces (x, y, z) and (normal_x, normal_y, normal_z).
type PointNormalCloud []PointNormal

// CurvatureCloud decomposes into principal_curvature_x/y/z, pc1, pc2 with
// space (principal_curvature_x, principal_curvature_y, principal_curvature_z).
type CurvatureCloud []PrincipalCurvatures

type accessor[T any] struct {
	name  string
	value func(T) float32
}

// decompose adds one feature per accessor then declares the given spaces.
// Every step runs; failures are joined.
func decompose[T any](c *Cloud, data []T, viewport int, fields []accessor[T], spaces ...[3]string) error {
	var errs []error
	for _, f := range fields {
		if err := AddFeatureFunc(c, f.name, data, f.value, viewport); err != nil {
			errs = append(errs, err)
		}
	}
	for _, s := range spaces {
		if err := c.AddSpace(s[0], s[1], s[2]); err != nil {
			errs = append(errs, err)
		}
	}
	return joinErrs(errs)
}

func selectIndices[T any](data []T, indices []int) []T {
	out := make([]T, 0, len(indices))
	for _, i := range indices {
		if i >= 0 && i < len(data) {
			out = append(out, data[i])
		}
	}
	return out
}

var (
	xyzSpace       = [3]string{"x", "y", "z"}
	normalSpace    = [3]string{"normal_x", "normal_y", "normal_z"}
	curvatureSpace = [3]string{"principal_curvature_x", "principal_curvature_y", "principal_curvature_z"}
)

func (p XYZCloud) Len() int { return len(p) }
func (p XYZCloud) Select(indices []int) Records {
	return XYZCloud(selectIndices(p, indices))
}
func (p XYZCloud) Decompose(c *Cloud, viewport int) error {
	return decompose(c, p, viewport, []accessor[PointXYZ]{
		{"x", func(q PointXYZ) float32 { return q.X }},
		{"y", func(q PointXYZ) float32 { return q.Y }},
		{"z", func(q PointXYZ) float32 { return q.Z }},
	}, xyzSpace)
}

func (p NormalCloud) Len() int { return len(p) }
func (p NormalCloud) Select(indices []int) Records {
	return NormalCloud(selectIndices(p, indices))
}
func (p NormalCloud) Decompose(c *Cloud, viewport int) error {
	return decompose(c, p, viewport, []accessor[Normal]{
		{"normal_x", func(q Normal) float32 { return q.NormalX }},
		{"normal_y", func(q Normal) float32 { return q.NormalY }},
		{"normal_z", func(q Normal) float32 { return q.NormalZ }},
		{"curvature", func(q Normal) float32 { return q.Curvature }},
	}, normalSpace)
}

func (p PointNormalCloud) Len() int { return len(p) }
func (p PointNormalCloud) Select(indices []int) Records {
	return PointNormalCloud(selectIndices(p, indices))
}
func (p PointNormalCloud) Decompose(c *Cloud, viewport int) error {
	return decompose(c, p, viewport, []accessor[PointNormal]{
		{"x", func(q PointNormal) float32 { return q.X }},
		{"y", func(q PointNormal) float32 { return q.Y }},
		{"z", func(q PointNormal) float32 { return q.Z }},
		{"normal_x", func(q PointNormal) float32 { return q.NormalX }},
		{"normal_y", func(q PointNormal) float32 { return q.NormalY }},
		{"normal_z", func(q PointNormal) float32 { return q.NormalZ }},
		{"curvature", func(q PointNormal) float32 { return q.Curvature }},
	}, xyzSpace, normalSpace)
}

func (p CurvatureCloud) Len() int { return len(p) }
func (p CurvatureCloud) Select(indices []int) Records {
	return CurvatureCloud(selectIndices(p, indices))
}
func (p CurvatureCloud) Decompose(c *Cloud, viewport int) error {
	// pc1 and pc2 stay plain features; there is no 2D space.
	return decompose(c, p, viewport, []accessor[PrincipalCurvatures]{
		{"principal_curvature_x", func(q PrincipalCurvatures) float32 { return q.PrincipalCurvatureX }},
		{"principal_curvature_y", func(q PrincipalCurvatures) float32 { return q.PrincipalCurvatureY }},
		{"principal_curvature_z", func(q PrincipalCurvatures) float32 { return q.PrincipalCurvatureZ }},
		{"pc1", func(q PrincipalCurvatures) float32 { return q.PC1 }},
		{"pc2", func(q PrincipalCurvatures) float32 { return q.PC2 }},
	}, curvatureSpace)
}
