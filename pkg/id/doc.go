// Package id provides time-ordered 128-bit identifiers.
package id
