// Package formats reads and writes the files of the reconstruction pipeline:
// ASCII PLY meshes, basis model containers and plain-text numeric vectors.
package formats
