// Package domain contains the core entities and value objects for radbatch.
//
// This package is the innermost layer. It has no dependencies on
// infrastructure concerns (file formats, logging, subprocesses) and contains
// only the rules of the extraction pipeline.
//
// # Entities
//
//   - [Case]: one image/mask pair with its output directory
//   - [Value]: a feature value, either scalar ([Number], [Text]) or image-valued ([FeatureMap])
//   - [Result]: the ordered output of one extraction call
//   - [Record]: the scalar features of one case, one table row
//   - [Table]: the assembled records of a batch
//   - [Volume]: a 3-D scalar image with physical geometry
//   - [RunStatus]: persisted progress of a batch run
package domain
