// Package pointcloud holds the in-memory data model of a visualisation
// session: named clouds of points, each point carrying an arbitrary set of
// named scalar features, plus the 3D spaces used to resolve a picked
// coordinate back to the point it came from.
//
// A Registry owns every Cloud. Top-level names and the per-point child
// attachments of a parent cloud both refer to clouds by CloudID, so a child
// reachable both ways is one object.
//
// The package is single-threaded: all mutation happens on the caller's
// goroutine before rendering, and pick callbacks run on the same logical
// thread afterwards. No locking is provided.
package pointcloud
