// Package pcd reads and writes the ascii flavour of the PCD v.7 point cloud
// format, names the files a session writes, and prunes old ones.
//
// Every field is written as a 4-byte scalar with count 1. The field named
// "rgb" is typed U and printed as an unsigned integer; every other field is
// typed F and printed as the shortest decimal that reads back to the same
// float32, so coordinates survive a write and reload bit for bit.
package pcd
