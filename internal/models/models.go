// Package models defines the data objects shared across buildident packages.
package models
