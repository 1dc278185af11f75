// Package utils holds small helpers shared by the command line.
package utils
