// Copyright PDF Columns Gateway Authors
// SPDX-License-Identifier: Apache-2.0

// Package docs embeds the gateway's OpenAPI document.
package docs

import _ "embed"

//go:embed openapi.yaml
var OpenAPISpec []byte
