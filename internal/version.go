package internal

// Version is the vocalens release version.
const Version = "0.3.0"
