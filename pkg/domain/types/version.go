package types

// Version is the build version, overridden via -ldflags "-X".
var Version = "dev"
