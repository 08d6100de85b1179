// Package mcp exposes session administration (list, inspect, destroy and
// garbage collection) to Model Context Protocol clients over stdio or SSE.
package mcp
