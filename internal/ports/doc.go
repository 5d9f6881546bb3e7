// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Extractor]: computes features for one image/mask pair
//   - [VolumeReader], [VolumeWriter]: decode and encode 3-D images
//   - [TableWriter], [TableReader]: export the feature table and load it back
//   - [StatusRepository]: persists and loads run progress
//   - [Logger]: structured logging abstraction
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters, internal/radiomics) implement
// them with concrete file formats, subprocesses and zerolog.
package ports
