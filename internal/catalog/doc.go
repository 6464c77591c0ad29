// Package catalog maps step type identifiers used in transformation files
// (e.g. "csv_input") to the factories that create step plugins.
//
// Step packages contribute their types through a Module, and the application
// assembles one Catalog from the compiled-in module list at startup.
package catalog
