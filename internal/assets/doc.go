// Package assets holds the option presets and the diagram page template.
//
// Assets are looked up by name. The embedded set ships in the binary; a base
// directory laid out as presets/{name}.yaml and templates/{name}.html can
// override single assets, and anything it lacks falls back to the embedded
// copy. Names are restricted to [A-Za-z0-9_-] and files resolved under a base
// directory must stay inside it after symlinks are followed.
package assets
