// Package utils holds build metadata injected at release time via ldflags.
package utils

var (
	Version   = "dev"
	Sha       = "HEAD"
	Buildtime = "dev"
)
