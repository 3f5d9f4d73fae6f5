// Package openapi embeds the OpenAPI document served at /api/openapi.yaml.
package openapi

import _ "embed"

// Spec is the raw OpenAPI 3 document.
//
//go:embed openapi.yaml
var Spec []byte
