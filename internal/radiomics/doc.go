// Package radiomics is the native feature extraction engine.
//
// It covers the first-order and shape feature classes, the voxel-wise
// filters that need no convolution (square, square root, logarithm and
// exponential), voxel-based first-order maps and diagnostics. Feature
// names follow the <imagetype>_<class>_<Feature> convention so tables
// line up with those produced by pyradiomics.
package radiomics
