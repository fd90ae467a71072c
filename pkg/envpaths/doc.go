// Package envpaths verifies the dataset and project directories a training
// script depends on.
//
// Both paths come from the environment, typically populated from a .env
// file with LoadEnv. A missing or empty variable is fatal for GetPaths; a
// value that does not point at a directory only produces a warning.
//
//	envpaths.LoadEnv(nil)
//	dataset, project := envpaths.NewVerifier(nil, nil).GetPaths()
package envpaths
