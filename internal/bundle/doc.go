// Package bundle loads, validates and stores site bundles.
//
// Bundles arrive as the generation pipeline's export files (YAML or
// JSON) or through the registration API. The registry keeps them in
// memory and mirrors them to disk as gzip-compressed JSON so a restart
// does not lose registered sites.
package bundle
