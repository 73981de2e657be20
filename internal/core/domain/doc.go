// Package domain contains the core types of the retrieval pipeline.
// These are plain records with no infrastructure dependencies; adapters
// and services exchange them across the port boundaries.
package domain
