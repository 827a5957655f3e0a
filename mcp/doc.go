// Package mcp exposes file-scoped document search as Model Context Protocol
// tools served over stdio.
package mcp
